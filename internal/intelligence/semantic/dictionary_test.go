package semantic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDictionary_NormalizesKeys(t *testing.T) {
	d := NewDictionary()
	c, ok := d.FindMatch("محكمة")
	require.True(t, ok)
	assert.Equal(t, "محكمه", c.Primary)
	assert.Equal(t, CategoryLegal, c.Category)
}

func TestFindMatch_LookupOrder(t *testing.T) {
	d := NewDictionary()

	t.Run("exact key", func(t *testing.T) {
		c, ok := d.FindMatch("عقد")
		require.True(t, ok)
		assert.Equal(t, "عقد", c.Primary)
	})

	t.Run("prefixed key", func(t *testing.T) {
		c, ok := d.FindMatch("العميل")
		require.True(t, ok)
		assert.Equal(t, "عميل", c.Primary)
	})

	t.Run("synonym substring", func(t *testing.T) {
		c, ok := d.FindMatch("الفواتير")
		require.True(t, ok)
		assert.Equal(t, "فاتوره", c.Primary)
	})

	t.Run("context tag partial match", func(t *testing.T) {
		_, ok := d.FindMatch("صيان")
		assert.False(t, ok, "partial primary match needs a context tag")

		c, ok := d.FindMatch("صيان", TagVehicle)
		require.True(t, ok)
		assert.Equal(t, "صيانه", c.Primary)

		_, ok = d.FindMatch("صيان", TagBilling)
		assert.False(t, ok, "tag must be shared")
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := d.FindMatch("طقس")
		assert.False(t, ok)
		_, ok = d.FindMatch("   ")
		assert.False(t, ok)
	})
}

func TestFindMatch_FirstMatchInTableOrder(t *testing.T) {
	d := NewDictionaryFrom([]Concept{
		{Primary: "اول", Synonyms: []string{"مشترك"}, Category: CategoryLegal},
		{Primary: "ثاني", Synonyms: []string{"مشترك"}, Category: CategoryFinancial},
	})
	c, ok := d.FindMatch("مشترك")
	require.True(t, ok)
	assert.Equal(t, "اول", c.Primary)
}

func TestAddCustomMapping_CopyOnExtend(t *testing.T) {
	d := NewDictionary()
	baseLen := len(d.Concepts())

	d.AddCustomMapping(Concept{Primary: "عقد", Synonyms: []string{"عقد إيجار"}, Category: CategoryOperations, Weight: 0.9})
	d.AddCustomMapping(Concept{Primary: "مرور", Synonyms: []string{"إدارة المرور"}, Category: CategoryLegal, ContextTags: []string{TagTraffic}})

	c, ok := d.FindMatch("عقد")
	require.True(t, ok)
	assert.Equal(t, CategoryOperations, c.Category, "custom entry takes precedence")

	concepts := d.Concepts()
	assert.Len(t, concepts, baseLen+1, "override replaces in place, new key is appended")
	assert.Equal(t, "مرور", concepts[len(concepts)-1].Primary)

	fresh := NewDictionary()
	c, _ = fresh.FindMatch("عقد")
	assert.Equal(t, CategoryLegal, c.Category, "base table is untouched")

	d.AddCustomMapping(Concept{})
	assert.Len(t, d.Concepts(), baseLen+1, "empty primary ignored")
}

func TestAddCustomMapping_ConcurrentReaders(t *testing.T) {
	d := NewDictionary()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.AddCustomMapping(Concept{Primary: "مرور", Category: CategoryLegal})
		}()
		go func() {
			defer wg.Done()
			_, _ = d.FindMatch("فاتورة")
			_ = d.MatchAll("كم فاتورة")
		}()
	}
	wg.Wait()
	c, ok := d.FindMatch("مرور")
	require.True(t, ok)
	assert.Equal(t, CategoryLegal, c.Category)
}

func TestMatchAll(t *testing.T) {
	d := NewDictionary()
	got := d.MatchAll("كم عدد العملاء الذين لديهم فواتير متأخرة")
	var primaries []string
	for _, c := range got {
		primaries = append(primaries, c.Primary)
	}
	assert.Equal(t, []string{"فاتوره", "عميل"}, primaries, "table order, not text order")

	phrase := d.MatchAll("أريد سند قبض")
	require.NotEmpty(t, phrase)
	assert.Equal(t, "سند", phrase[0].Primary)

	assert.Nil(t, d.MatchAll(""))
}

func TestExpand(t *testing.T) {
	d := NewDictionary()

	got := d.Expand("كم فاتورة", true)
	require.NotEmpty(t, got)
	assert.Equal(t, "كم فاتوره", got[0])
	assert.Contains(t, got, "كم فواتير")

	without := d.Expand("كم فاتورة", false)
	assert.NotContains(t, without, "كم فاتوره")

	assert.Equal(t, []string{"مرحبا"}, d.Expand("مرحبا", false), "unknown query yields itself")
}

func TestRelatedConcepts(t *testing.T) {
	d := NewDictionary()
	related := d.RelatedConcepts("سيارة", 3)
	require.Len(t, related, 3)
	for _, c := range related {
		assert.NotEqual(t, "سياره", c.Primary)
	}
	assert.True(t, related[0].HasTag(TagVehicle))

	assert.Nil(t, d.RelatedConcepts("طقس", 3))
	assert.Nil(t, d.RelatedConcepts("سيارة", 0))
}

//Personal.AI order the ending
