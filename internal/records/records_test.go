package records

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/question-engine/pkg/types"
)

func TestBuilderEncounterOrder(t *testing.T) {
	b := NewBuilder()
	i7 := b.Add(types.QuestionBlock{Number: 7, Stem: "seven"})
	i3 := b.Add(types.QuestionBlock{Number: 3, Stem: "three"})
	b.AddQuestionImage(i7, "images/img_q7_0.png")
	b.AddOptionImage(i3, "images/q3_optionA_1.png")

	recs := b.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 7, recs[0].QuestionNumber)
	assert.Equal(t, 3, recs[1].QuestionNumber)
	assert.Equal(t, []string{"images/img_q7_0.png"}, recs[0].QuestionImages)
	assert.Equal(t, []string{"images/q3_optionA_1.png"}, recs[1].OptionImages)
}

func TestBuilderImageListsNeverNil(t *testing.T) {
	b := NewBuilder()
	b.Add(types.QuestionBlock{Number: 1, Stem: "q"})

	rec := b.Records()[0]
	assert.NotNil(t, rec.QuestionImages)
	assert.NotNil(t, rec.OptionImages)
	assert.Equal(t, 1, b.Len())
}

func TestWriteJSONContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions_structured.json")
	recs := []types.QuestionRecord{{
		QuestionNumber: 1,
		Question:       "What is 2+2?",
		QuestionImages: []string{},
		OptionImages:   []string{},
	}}
	require.NoError(t, WriteJSON(path, recs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	got := string(data)
	assert.Contains(t, got, `"question_number": 1`)
	assert.Contains(t, got, `"question": "What is 2+2?"`)
	assert.Contains(t, got, `"question_images": []`)
	assert.Contains(t, got, `"option_images": []`)
	assert.NotContains(t, got, "null")
}

func TestWriteJSONEmptyAndNil(t *testing.T) {
	for name, recs := range map[string][]types.QuestionRecord{
		"empty": {},
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			require.NoError(t, WriteJSON(path, recs))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "[]", strings.TrimSpace(string(data)))
		})
	}
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(filepath.Join(dir, "out.json"), []types.QuestionRecord{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extraction_report.yaml")
	r := Report{
		Source:      "paper.pdf",
		Pages:       3,
		Questions:   10,
		ImagesSaved: 4,
		Warnings: []types.Warning{{
			Kind:    types.WarnSegmentation,
			Page:    2,
			Message: "no question numbering matched",
		}},
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, WriteReport(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	got := string(data)
	assert.Contains(t, got, "source: paper.pdf")
	assert.Contains(t, got, "questions: 10")
	assert.Contains(t, got, "kind: segmentation")
}
