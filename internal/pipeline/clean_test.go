package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
)

func TestCleanContent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"fenced", "```markdown\nSolar panels work.\n```", "Solar panels work.", true},
		{"blank runs", "First.   \n\n\n\nSecond.\t", "First.\n\nSecond.", true},
		{"delimiters", "[SECTION:cost]\nCost text.\n[/SECTION:cost]", "Cost text.", true},
		{"heading only", "## Cost of solar panels\n\n### Details", "", false},
		{"empty", "   \n", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CleanContent(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseBatchResponse(t *testing.T) {
	t.Run("delimited", func(t *testing.T) {
		resp := "[SECTION:a]\nAlpha text.\n[/SECTION:a]\n\nnoise\n[SECTION:b]\nBeta text.\n[/SECTION:b]"
		got, delimited := ParseBatchResponse(resp, []string{"a", "b"})
		assert.True(t, delimited)
		if diff := cmp.Diff(map[string]string{"a": "Alpha text.", "b": "Beta text."}, got); diff != "" {
			t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("single section", func(t *testing.T) {
		got, delimited := ParseBatchResponse("  Only text.  ", []string{"a"})
		assert.False(t, delimited)
		assert.Equal(t, map[string]string{"a": "Only text."}, got)
	})
	t.Run("heading split", func(t *testing.T) {
		resp := "## Alpha\n\nAlpha text.\n\n### Detail\n\nMore alpha.\n\n## Beta\n\nBeta text.\n\n## Gamma\n\nExtra."
		got, delimited := ParseBatchResponse(resp, []string{"a", "b"})
		assert.False(t, delimited)
		if diff := cmp.Diff(map[string]string{"a": "Alpha text.\n\n### Detail\n\nMore alpha.", "b": "Beta text."}, got); diff != "" {
			t.Fatalf("fragments mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAssembleDraft(t *testing.T) {
	sections := []domain.Section{
		{Key: "intro", Heading: "Introduction", Level: 2, CurrentContent: "Intro text."},
		{Key: "empty", Heading: "Empty", Level: 2},
		{Key: "detail", Heading: "Detail", Level: 3, CurrentContent: "Detail text.\n"},
	}
	want := "# Solar panels\n\n## Introduction\n\nIntro text.\n\n### Detail\n\nDetail text.\n"
	assert.Equal(t, want, AssembleDraft("Solar panels", sections))
	assert.Equal(t, "", AssembleDraft("", nil))
}

func TestExtractDiscourse(t *testing.T) {
	d := ExtractDiscourse("Solar panels lower bills. The inverter converts direct current into household power.")
	assert.Equal(t, "The inverter converts direct current into household power.", d.LastSentence)
	assert.Equal(t, "inverter converts", d.Subject)
	assert.Equal(t, "direct current into household power", d.Predicate)
	assert.Empty(t, ExtractDiscourse("").LastSentence)
}

func TestValidateDraft(t *testing.T) {
	pat := audit.PatternsFor("en")
	good := "Solar panels convert sunlight into electricity through photovoltaic cells. A typical home system produces between three and five thousand kilowatt hours per year."
	assert.Empty(t, ValidateDraft(good, domain.SectionDefinition{Heading: "How solar panels work", FormatCode: domain.FormatProse}, pat))

	problems := ValidateDraft("## Cost\n\nSolar panels might be cheap. Let us delve into the numbers.", domain.SectionDefinition{Heading: "Cost", FormatCode: domain.FormatTable}, pat)
	assert.Contains(t, problems, "do not repeat the section heading")
	assert.Contains(t, problems, "the section must contain a markdown table")
	assert.Contains(t, problems, `the first sentence hedges with "might"; make it definitive`)
	assert.Contains(t, problems, `remove the phrase "delve into"`)
}

func TestPriorityOrderIsStable(t *testing.T) {
	defs := []domain.SectionDefinition{
		{Key: "a", AttributeCategory: domain.AttributeCommon},
		{Key: "b", AttributeCategory: domain.AttributeRoot},
		{Key: "c", AttributeCategory: domain.AttributeCommon},
		{Key: "d", AttributeCategory: domain.AttributeRare},
	}
	var keys []string
	for _, d := range PriorityOrder(defs) {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, keys)
	assert.Equal(t, "a", defs[0].Key)
}

type statusStub struct {
	calls  int
	status domain.JobStatus
}

func (s *statusStub) JobStatus(context.Context, string) (domain.JobStatus, error) {
	s.calls++
	return s.status, nil
}

func TestAbortWhenStatusThrottles(t *testing.T) {
	stub := &statusStub{status: domain.JobStatusInProgress}
	abort := AbortWhenStatus(stub, "job", time.Hour)
	ctx := context.Background()

	assert.False(t, abort(ctx))
	assert.False(t, abort(ctx))
	assert.Equal(t, 1, stub.calls)

	stub.status = domain.JobStatusAborted
	fresh := AbortWhenStatus(stub, "job", 0)
	assert.True(t, fresh(ctx))
	assert.True(t, fresh(ctx))
	assert.Equal(t, 2, stub.calls)
}
