package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelvault/coverid/internal/config"
	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/handlers"
)

const catalogFixture = `{"id":300,"volume":"The Amazing Spider-Man","issue_number":"300","publisher":"Marvel","cover_date":"1988-05-01"}
{"id":301,"volume":"The Amazing Spider-Man","issue_number":"301","publisher":"Marvel","cover_date":"1988-06-01"}
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(catalogFixture), 0o644))
	return path
}

func TestRunIdentifyJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	opts := identifyOptions{catalog: writeCatalog(t), asJSON: true}
	args := []string{"AMAZING SPIDER-MAN", "#300", "MARVEL COMICS", "1988"}
	require.NoError(t, runIdentify(context.Background(), &out, nil, config.Default(), opts, args))

	var got identifyOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "AMAZING SPIDER-MAN #300", got.Query)
	assert.Equal(t, decision.StateAwaitingUserChoice, got.State)
	require.Len(t, got.Choices, 1)
	assert.Equal(t, int64(300), got.Choices[0].ID)
	assert.Equal(t, decision.LabelHighMatch, got.Choices[0].Label)
}

func TestRunIdentifyArgsWithSlabLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	opts := identifyOptions{catalog: writeCatalog(t), asJSON: true}
	args := []string{"AMAZING SPIDER-MAN", "#300", "MARVEL", "1988", "CGC 9.8"}
	require.NoError(t, runIdentify(context.Background(), &out, nil, config.Default(), opts, args))

	var got identifyOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "AMAZING SPIDER-MAN #300", got.Query)
	require.NotEmpty(t, got.Choices)
	assert.Equal(t, int64(300), got.Choices[0].ID)
}

func TestRunIdentifyTableFromStdin(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	in := strings.NewReader("AMAZING SPIDER-MAN\n#300\nMARVEL\n1988\n")
	opts := identifyOptions{catalog: writeCatalog(t), textPath: "-", format: "csv"}
	require.NoError(t, runIdentify(context.Background(), &out, in, config.Default(), opts, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#,ID,Series,Issue,Year,Publisher,Confidence,Label,Note", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,300,The Amazing Spider-Man,300,1988,Marvel,"))
}

func TestRunIdentifyNoMatch(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	opts := identifyOptions{catalog: writeCatalog(t)}
	require.NoError(t, runIdentify(context.Background(), &out, nil, config.Default(), opts, []string{"WATCHMEN #1"}))
	assert.Contains(t, out.String(), string(decision.StateNoConfidentMatch))
	assert.Contains(t, out.String(), handlers.MessageNoMatch)
}

func TestRunIdentifyErrors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := runIdentify(context.Background(), &out, nil, config.Default(), identifyOptions{}, []string{"SAGA #1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no catalog")

	err = runIdentify(context.Background(), &out, nil, config.Default(), identifyOptions{catalog: writeCatalog(t)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scan")

	err = runIdentify(context.Background(), &out, nil, config.Default(), identifyOptions{catalog: writeCatalog(t), format: "xml"}, []string{"SAGA"})
	require.Error(t, err)
}
