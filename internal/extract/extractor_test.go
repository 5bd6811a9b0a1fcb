package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
)

type fakeModel struct {
	out    string
	err    error
	prompt string
	calls  int
}

func (f *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.out, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractRulesScenario(t *testing.T) {
	e := NewExtractor(nil, time.Second, testLogger())

	f, tier := e.ExtractWithTier(context.Background(), "MH 09 HH 4512\nIndore to Nagpur\n7300 kg\naluminium scrap")
	assert.Equal(t, TierRules, tier)
	assert.Equal(t, domain.LRFields{
		TruckNumber: "MH09HH4512",
		From:        "Indore",
		To:          "Nagpur",
		Weight:      "7300",
		Description: "Aluminium Scrap",
	}, f)
}

func TestExtractUnassignedVehicle(t *testing.T) {
	e := NewExtractor(nil, time.Second, testLogger())

	f := e.Extract(context.Background(), "new truck\nto Bhopal\n30\nsteel")
	assert.Equal(t, "new truck", f.TruckNumber)
	assert.Equal(t, "", f.From)
	assert.Equal(t, "Bhopal", f.To)
	assert.Equal(t, "30000", f.Weight)
	assert.Equal(t, "Steel", f.Description)
}

func TestExtractModelTier(t *testing.T) {
	model := &fakeModel{out: "```json\n{\"truckNumber\": \"mh-09-hh-4512\", \"from\": \"indore\", \"to\": \"nagpur\", \"weight\": 7.5, \"description\": \"tmt bar\", \"name\": \"ramesh kumar\"}\n```"}
	e := NewExtractor(model, time.Second, testLogger())

	f, tier := e.ExtractWithTier(context.Background(), "anything")
	assert.Equal(t, TierModel, tier)
	assert.Equal(t, 1, model.calls)
	assert.Contains(t, model.prompt, `"""anything"""`)
	assert.Equal(t, domain.LRFields{
		TruckNumber: "MH09HH4512",
		From:        "Indore",
		To:          "Nagpur",
		Weight:      "7500",
		Description: "Tmt Bar",
		Name:        "Ramesh Kumar",
	}, f)
}

func TestExtractFallsBackToRules(t *testing.T) {
	msg := "MH 09 HH 4512\nIndore to Nagpur\n7300 kg\naluminium scrap"
	cases := map[string]*fakeModel{
		"error":       {err: errors.New("rate limited")},
		"empty":       {out: "  "},
		"unparseable": {out: "sorry, I cannot help with that"},
		"no fields":   {out: `{"truckNumber": "", "to": ""}`},
	}
	for name, model := range cases {
		t.Run(name, func(t *testing.T) {
			e := NewExtractor(model, time.Second, testLogger())
			f, tier := e.ExtractWithTier(context.Background(), msg)
			assert.Equal(t, TierRules, tier)
			assert.Equal(t, "MH09HH4512", f.TruckNumber)
			assert.Equal(t, "7300", f.Weight)
		})
	}
}

func TestExtractEmpty(t *testing.T) {
	model := &fakeModel{}
	e := NewExtractor(model, time.Second, testLogger())

	f, tier := e.ExtractWithTier(context.Background(), "   ")
	assert.Equal(t, TierNone, tier)
	assert.Equal(t, domain.LRFields{}, f)
	assert.Zero(t, model.calls)

	f, tier = e.ExtractWithTier(context.Background(), "hello there")
	assert.Equal(t, TierNone, tier)
	assert.Equal(t, domain.LRFields{}, f)
}

func TestRuleExtractVariants(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want domain.LRFields
	}{
		{
			name: "se route and tonnes",
			msg:  "GJ-01-AB-1234\nindore se pune\n25 ton\nplastic dana\nn - suresh",
			want: domain.LRFields{TruckNumber: "GJ01AB1234", From: "Indore", To: "Pune", Weight: "25000", Description: "Plastic Dana", Name: "Suresh"},
		},
		{
			name: "arrow route and fixed weight",
			msg:  "RJ14GB9876\njaipur -> delhi\nfix 22000\nms scrap\nname: mohan",
			want: domain.LRFields{TruckNumber: "RJ14GB9876", From: "Jaipur", To: "Delhi", Weight: "fix 22000", Description: "Ms Scrap", Name: "Mohan"},
		},
		{
			name: "route after plate, weight prefers unit tag",
			msg:  "MP 09 HF 1122 bhopal-indore\ncall 9876543210\n12000\n15 mt\niron",
			want: domain.LRFields{TruckNumber: "MP09HF1122", From: "Bhopal", To: "Indore", Weight: "15000", Description: "Iron"},
		},
		{
			name: "single line",
			msg:  "MH09HH4512 Indore to Nagpur 7300 kg aluminium scrap",
			want: domain.LRFields{TruckNumber: "MH09HH4512", From: "Indore", To: "Nagpur", Weight: "7300", Description: "Aluminium Scrap"},
		},
		{
			name: "place containing a goods fragment",
			msg:  "MH 09 HH 4512\nIndore to Barmer\n7300 kg\naluminium scrap",
			want: domain.LRFields{TruckNumber: "MH09HH4512", From: "Indore", To: "Barmer", Weight: "7300", Description: "Aluminium Scrap"},
		},
		{
			name: "single line with fragment place",
			msg:  "CG04MN5566 raipur to pipariya 20 ton pipe",
			want: domain.LRFields{TruckNumber: "CG04MN5566", From: "Raipur", To: "Pipariya", Weight: "20000", Description: "Pipe"},
		},
		{
			name: "bareilly",
			msg:  "UP25CT4455\nnagpur to bareilly\n18 ton\noil drums",
			want: domain.LRFields{TruckNumber: "UP25CT4455", From: "Nagpur", To: "Bareilly", Weight: "18000", Description: "Oil Drums"},
		},
		{
			name: "number next to the unit wins",
			msg:  "MH12AB1234\npune to nashik\nweight 25 mt 500kg extra\nsteel",
			want: domain.LRFields{TruckNumber: "MH12AB1234", From: "Pune", To: "Nashik", Weight: "25000", Description: "Steel"},
		},
		{
			name: "unassigned vehicle on the route line",
			msg:  "new gadi indore to bhopal 30 steel",
			want: domain.LRFields{TruckNumber: "new gadi", From: "Indore", To: "Bhopal", Weight: "30000", Description: "Steel"},
		},
		{
			name: "largest over a thousand",
			msg:  "HR55AA1234\nsonipat to kanpur\n12 bags 18500\npaper",
			want: domain.LRFields{TruckNumber: "HR55AA1234", From: "Sonipat", To: "Kanpur", Weight: "18500", Description: "Paper"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(ruleExtract(tt.msg)))
		})
	}
}

func TestPickWeight(t *testing.T) {
	assert.Equal(t, "25", pickWeight([]string{"weight 25 mt 500kg extra"}))
	assert.Equal(t, "7300", pickWeight([]string{"wt: 7300", "12 bags"}))
	assert.Equal(t, "500", pickWeight([]string{"12 bags 500kg"}))
	assert.Equal(t, "18500", pickWeight([]string{"12 bags 18500"}))
	assert.Equal(t, "", pickWeight([]string{"call 9876543210"}))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "ab...", truncate("ab🚚", 3))
	assert.Equal(t, "short", truncate("short", 10))
}

func TestNormalizeWeight(t *testing.T) {
	assert.Equal(t, "30000", NormalizeWeight("30"))
	assert.Equal(t, "7500", NormalizeWeight("7.5"))
	assert.Equal(t, "100", NormalizeWeight("100"))
	assert.Equal(t, "7300", NormalizeWeight("7,300 kg"))
	assert.Equal(t, "1234", NormalizeWeight("1233.6"))
	assert.Equal(t, "0", NormalizeWeight("0"))
	assert.Equal(t, "", NormalizeWeight("  "))
	assert.Equal(t, "as per bill", NormalizeWeight("as per bill"))

	for _, in := range []string{"fix", " FIX 25 ", "Fixed rate", "25 fix"} {
		assert.Equal(t, strings.TrimSpace(in), NormalizeWeight(in))
	}
}

func TestNormalizeWeightRounding(t *testing.T) {
	for n := 1; n < 100; n++ {
		assert.Equal(t, strconv.Itoa(n*1000), NormalizeWeight(strconv.Itoa(n)))
	}
	assert.Equal(t, "250", NormalizeWeight("250"))
	assert.Equal(t, "99900", NormalizeWeight("99.9"))
}

func TestNormalizeTruck(t *testing.T) {
	assert.Equal(t, "MH09HH4512", NormalizeTruck(" mh-09 hh 4512 "))
	assert.Equal(t, "new truck", NormalizeTruck("New  Truck"))
	assert.Equal(t, "bellgadi", NormalizeTruck("BELLGADI"))
}
