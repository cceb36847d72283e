package morphology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_LegalVocabulary(t *testing.T) {
	a := NewAnalyzer(nil)

	tests := []struct {
		word    string
		root    string
		concept string
	}{
		{"محكمة", "حكم", "judgment"},
		{"المحكمة", "حكم", "judgment"},
		{"مخالفة", "خلف", "violation"},
		{"تعويض", "عوض", "compensation"},
		{"محامي", "حمي", "advocacy"},
		{"قضية", "قضي", "judiciary"},
		{"دعوى", "دعي", "lawsuit"},
		{"العقود", "عقد", "contract"},
		{"إنذار", "نذر", "notice"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := a.Analyze(tt.word)
			assert.Equal(t, tt.root, got.Root)
			assert.Equal(t, tt.concept, got.LegalConcept)
			assert.True(t, got.IsLegal())
			assert.InDelta(t, ConfidenceLexicon, got.Confidence, 1e-9)
		})
	}
}

func TestAnalyze_NonLegalPattern(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze("كاتب")
	assert.Equal(t, "كتب", got.Root)
	assert.Equal(t, "فاعل", got.Pattern)
	assert.False(t, got.IsLegal())
	assert.InDelta(t, ConfidencePattern, got.Confidence, 1e-9)
}

func TestAnalyze_EmptyAndShort(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, Analysis{}, a.Analyze(""))

	short := a.Analyze("في")
	assert.Equal(t, "في", short.Root)
	assert.InDelta(t, ConfidenceFallback, short.Confidence, 1e-9)
}

func TestNewAnalyzer_ExtraRoots(t *testing.T) {
	a := NewAnalyzer(map[string]string{"كتب": "documentation"})
	got := a.Analyze("مكتوب")
	assert.Equal(t, "كتب", got.Root)
	assert.Equal(t, "documentation", got.LegalConcept)

	c, ok := a.Concept("كتب")
	require.True(t, ok)
	assert.Equal(t, "documentation", c)
}

func TestLegalRoots(t *testing.T) {
	a := NewAnalyzer(nil)
	roots := a.LegalRoots("رفع دعوى أمام المحكمة بسبب مخالفة العقد والمحكمة")
	assert.Equal(t, []string{"دعي", "حكم", "خلف", "عقد"}, roots)
	assert.Empty(t, a.LegalRoots("كم سيارة لدينا"))
}

func TestMatchTemplate(t *testing.T) {
	root, ok := matchTemplate("مفاعله", "مفاعله")
	assert.True(t, ok)
	assert.Equal(t, "فعل", root)

	_, ok = matchTemplate("كتب", "فاعل")
	assert.False(t, ok)
}

//Personal.AI order the ending
