// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcode

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

// --- test helpers ---

func decode(t *testing.T, doc string) *types.Notebook {
	t.Helper()
	var nb types.Notebook
	require.NoError(t, json.Unmarshal([]byte(doc), &nb))
	return &nb
}

func worksheet(cells ...string) string {
	return `{"nbformat": 3, "worksheets": [{"cells": [` + strings.Join(cells, ",") + `]}]}`
}

func newTranscoder(t *testing.T, v types.Variant, mutate ...func(*types.TranscodeConfig)) *Transcoder {
	t.Helper()
	cfg, err := types.Preset(v)
	require.NoError(t, err)
	for _, m := range mutate {
		m(&cfg)
	}
	tr, err := New(cfg, nil)
	require.NoError(t, err)
	return tr
}

func render(t *testing.T, tr *Transcoder, nb *types.Notebook) (string, types.Stats) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := tr.Transcode(nb, &buf)
	require.NoError(t, err)
	return buf.String(), stats
}

// --- scenarios ---

func TestTranscode_MarkdownCell(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "markdown", "source": ["Hello", " world"]}`))

	out, stats := render(t, newTranscoder(t, types.VariantIPy), nb)

	assert.Equal(t, "Hello world\n\n", out)
	assert.Equal(t, 1, stats.Markdown)
}

func TestTranscode_CodeCellPythonVariant(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "code", "prompt_number": 3, "input": ["x = 1"],
		"outputs": [{"output_type": "pyout", "text": ["1"]}]}`))

	out, stats := render(t, newTranscoder(t, types.VariantPython), nb)

	want := "{% highlight python %}\nIn [3]: x = 1\nOut [3]: 1\n{% endhighlight %}\n\n"
	assert.Equal(t, want, out)
	assert.Equal(t, 1, stats.Code)
	assert.Equal(t, 1, stats.Outputs)
}

func TestTranscode_CodeCellIPyVariant(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "code", "prompt_number": 5,
		"input": ["for i in range(2):\n", "    print i"],
		"outputs": [{"output_type": "stream", "stream": "stdout", "text": ["0\n", "1\n"]}]}`))

	out, _ := render(t, newTranscoder(t, types.VariantIPy), nb)

	want := "{% highlight ipy %}\n" +
		"In [5]: for i in range(2):\n    print i\n" +
		"Out[5]: 0\n1\n\n" +
		"{% endhighlight %}\n\n"
	assert.Equal(t, want, out)
}

func TestTranscode_ErrorOutputStripsColors(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "code", "prompt_number": 2, "input": ["1/0"],
		"outputs": [{"output_type": "pyerr", "ename": "ZeroDivisionError",
			"traceback": ["\u001b[31mTraceback\u001b[0m", "\u001b[0;31mZeroDivisionError\u001b[0m: integer division"]}]}`))

	out, _ := render(t, newTranscoder(t, types.VariantIPy), nb)

	assert.NotContains(t, out, "\x1b")
	assert.Contains(t, out, "In [2]: 1/0\nTraceback\nZeroDivisionError: integer division\n{% endhighlight %}")
}

func TestTranscode_OutputsInOrder(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "code", "prompt_number": 7, "input": ["f()"],
		"outputs": [
			{"output_type": "stream", "text": ["first"]},
			{"output_type": "pyout", "text": ["second"]},
			{"output_type": "stream", "text": ["third"]}
		]}`))

	out, stats := render(t, newTranscoder(t, types.VariantPython), nb)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "In [7]: f()", lines[1])
	assert.Equal(t, "Out [7]: first", lines[2])
	assert.Equal(t, "Out [7]: second", lines[3])
	assert.Equal(t, "Out [7]: third", lines[4])
	assert.Equal(t, 1, strings.Count(out, "In ["))
	assert.Equal(t, 3, stats.Outputs)
}

func TestTranscode_CellOrderAndSeparators(t *testing.T) {
	nb := decode(t, worksheet(
		`{"cell_type": "markdown", "source": ["# Title"]}`,
		`{"cell_type": "code", "prompt_number": 1, "input": ["a"], "outputs": []}`,
		`{"cell_type": "heading", "level": 2, "source": ["ignored"]}`,
		`{"cell_type": "markdown", "source": "tail"}`,
	))

	out, stats := render(t, newTranscoder(t, types.VariantIPy), nb)

	want := "# Title\n\n" +
		"{% highlight ipy %}\nIn [1]: a\n{% endhighlight %}\n\n" +
		"\n" +
		"tail\n\n"
	assert.Equal(t, want, out)
	assert.Equal(t, types.Stats{Cells: 4, Markdown: 2, Code: 1, Skipped: 1}, stats)
}

func TestTranscode_EmptyNotebook(t *testing.T) {
	for _, doc := range []string{worksheet(), `{"nbformat": 4, "cells": []}`} {
		out, stats := render(t, newTranscoder(t, types.VariantIPy), decode(t, doc))
		assert.Empty(t, out)
		assert.Zero(t, stats.Cells)
	}
}

func TestTranscode_NBFormat4(t *testing.T) {
	nb := decode(t, `{"nbformat": 4, "cells": [
		{"cell_type": "code", "execution_count": 4, "source": ["y = 2\n", "y"],
		 "outputs": [
			{"output_type": "execute_result", "execution_count": 4, "data": {"text/plain": ["2"], "application/json": {"v": 2}}},
			{"output_type": "error", "ename": "E", "traceback": ["\u001b[1;32mboom\u001b[0m"]}
		 ]}
	]}`)

	out, _ := render(t, newTranscoder(t, types.VariantIPy), nb)

	want := "{% highlight ipy %}\nIn [4]: y = 2\ny\nOut[4]: 2\nboom\n{% endhighlight %}\n\n"
	assert.Equal(t, want, out)
}

func TestTranscode_UnsetPrompt(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "code", "input": ["pass"], "outputs": [{"output_type": "stream", "text": "x"}]}`))

	out, _ := render(t, newTranscoder(t, types.VariantIPy), nb)

	assert.Contains(t, out, "In [ ]: pass\nOut[ ]: x\n")
}

func TestTranscode_Idempotent(t *testing.T) {
	nb := decode(t, worksheet(
		`{"cell_type": "markdown", "source": ["intro"]}`,
		`{"cell_type": "code", "prompt_number": 1, "input": ["x"], "outputs": [{"output_type": "pyout", "text": ["1"]}]}`,
	))
	tr := newTranscoder(t, types.VariantPython)

	first, _ := render(t, tr, nb)
	second, _ := render(t, tr, nb)

	assert.Equal(t, first, second)
}

func TestTranscode_InputJoinRoundTrip(t *testing.T) {
	fragments := []string{"import os", "print(os.sep)", "x = 1"}
	cell, err := json.Marshal(map[string]any{
		"cell_type": "code", "prompt_number": 9, "input": fragments, "outputs": []any{},
	})
	require.NoError(t, err)
	nb := decode(t, worksheet(string(cell)))

	out, _ := render(t, newTranscoder(t, types.VariantPython), nb)

	body := strings.TrimPrefix(out, "{% highlight python %}\nIn [9]: ")
	body = strings.TrimSuffix(body, "\n{% endhighlight %}\n\n")
	assert.Equal(t, fragments, strings.Split(body, "\n"))
}

// --- unknown output kinds ---

func TestTranscode_UnknownOutputAborts(t *testing.T) {
	nb := decode(t, worksheet(
		`{"cell_type": "markdown", "source": ["before"]}`,
		`{"cell_type": "code", "prompt_number": 12, "input": ["plot()"], "outputs": [{"output_type": "display_data", "png": "..."}]}`,
		`{"cell_type": "markdown", "source": ["after"]}`,
	))

	var buf bytes.Buffer
	_, err := newTranscoder(t, types.VariantIPy).Transcode(nb, &buf)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOutput))

	var kindErr *OutputKindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, 1, kindErr.Cell)
	require.NotNil(t, kindErr.Prompt)
	assert.Equal(t, 12, *kindErr.Prompt)
	assert.Equal(t, "display_data", kindErr.Kind)
	assert.Equal(t, `cell 1 (prompt 12): unexpected output kind "display_data"`, kindErr.Error())
	assert.NotContains(t, buf.String(), "after")
}

func TestTranscode_UnknownOutputPlaceholder(t *testing.T) {
	nb := decode(t, worksheet(
		`{"cell_type": "code", "prompt_number": 1, "input": ["plot()"], "outputs": [
			{"output_type": "display_data"},
			{"output_type": "pyout", "text": ["ok"]}
		]}`,
	))
	tr := newTranscoder(t, types.VariantIPy, func(c *types.TranscodeConfig) {
		c.OnUnknownOutput = types.PolicyPlaceholder
	})

	out, stats := render(t, tr, nb)

	assert.Equal(t, "{% highlight ipy %}\nIn [1]: plot()\n[unsupported output: display_data]\nOut[1]: ok\n{% endhighlight %}\n\n", out)
	assert.Equal(t, 1, stats.Placeholders)
	assert.Equal(t, 1, stats.Outputs)
}

func TestCheck(t *testing.T) {
	nb := decode(t, worksheet(
		`{"cell_type": "markdown", "source": ["x"]}`,
		`{"cell_type": "code", "prompt_number": 1, "input": ["a"], "outputs": [{"output_type": "stream", "text": ["a"]}]}`,
		`{"cell_type": "code", "prompt_number": 2, "input": ["b"], "outputs": [{"output_type": "display_data"}, {"output_type": "svg"}]}`,
	))

	errs := Check(nb)

	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Cell)
	assert.Equal(t, "display_data", errs[0].Kind)
	assert.Equal(t, "svg", errs[1].Kind)
}

// --- configuration ---

func TestOutputLabel(t *testing.T) {
	three := 3
	tests := []struct {
		name   string
		format string
		prompt *int
		want   string
	}{
		{"ipy label", "Out[{prompt}]: ", &three, "Out[3]: "},
		{"python label", "Out [{prompt}]: ", &three, "Out [3]: "},
		{"unset prompt", "Out[{prompt}]: ", nil, "Out[ ]: "},
		{"no placeholder", "=> ", &three, "=> "},
		{"repeated placeholder", "{prompt}/{prompt} ", &three, "3/3 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTranscoder(t, types.VariantIPy, func(c *types.TranscodeConfig) {
				c.OutputLabelFormat = tt.format
			})
			assert.Equal(t, tt.want, tr.OutputLabel(tt.prompt))
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(types.TranscodeConfig{LanguageTag: "", OnUnknownOutput: types.PolicyAbort}, nil)
	assert.Error(t, err)

	_, err = New(types.TranscodeConfig{LanguageTag: "ipy", OnUnknownOutput: "ignore"}, nil)
	assert.Error(t, err)
}

// --- color stripping ---

func TestStripColors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "no escapes here", "no escapes here"},
		{"single sequence", "\x1b[31mTraceback\x1b[0m", "Traceback"},
		{"compound parameters", "\x1b[0;32;1mok\x1b[0m done", "ok done"},
		{"line breaks preserved", "a\n\x1b[1mb\x1b[0m\nc", "a\nb\nc"},
		{"bare m without escape", "mmm", "mmm"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripColors(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "\x1b")
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTranscode_WriteError(t *testing.T) {
	nb := decode(t, worksheet(`{"cell_type": "markdown", "source": ["x"]}`))

	_, err := newTranscoder(t, types.VariantIPy).Transcode(nb, failingWriter{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
