package dedupe

import (
	"testing"

	"jobwatch-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(company, title, location, source string) domain.JobRecord {
	return domain.JobRecord{Company: company, Title: title, Location: location, PlatformSource: source}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("acme", "acme"))
	assert.Equal(t, 100, Ratio("", ""))
	assert.Equal(t, 0, Ratio("", "acme"))
	assert.Equal(t, 0, Ratio("abc", "xyz"))
	// 2*4/(4+5)
	assert.Equal(t, 89, Ratio("acme", "acme."))
	assert.Equal(t, 96, Ratio("data analyst", "data analysts"))
}

func TestPrioritySurvives(t *testing.T) {
	d := New(nil)
	in := []domain.JobRecord{
		rec("Acme Analytics", "Data Analyst", "Bengaluru", domain.PlatformWellfound),
		rec("Acme Analytics", "Data Analyst", "Bengaluru", domain.PlatformIndeed),
		rec("Acme Analytics Pvt", "Data Analyst", "Bengaluru", domain.PlatformNaukri),
	}
	out := d.Dedupe(in)
	require.Len(t, out, 1)
	assert.Equal(t, domain.PlatformNaukri, out[0].PlatformSource)
}

func TestUnlistedSourcesRankLastInInputOrder(t *testing.T) {
	d := New(nil)
	in := []domain.JobRecord{
		rec("Zeta", "Analyst", "", "Glassdoor"),
		rec("Eta", "Scientist", "", "Monster"),
		rec("Theta", "Engineer", "", domain.PlatformWellfound),
	}
	out := d.Dedupe(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{domain.PlatformWellfound, "Glassdoor", "Monster"},
		[]string{out[0].PlatformSource, out[1].PlatformSource, out[2].PlatformSource})
}

func TestLocationOnlyComparedWhenBothPresent(t *testing.T) {
	d := New(nil)

	out := d.Dedupe([]domain.JobRecord{
		rec("Acme", "Data Analyst", "", domain.PlatformNaukri),
		rec("Acme", "Data Analyst", "Chennai", domain.PlatformIndeed),
	})
	assert.Len(t, out, 1)

	out = d.Dedupe([]domain.JobRecord{
		rec("Acme", "Data Analyst", "Mumbai", domain.PlatformNaukri),
		rec("Acme", "Data Analyst", "Kolkata", domain.PlatformIndeed),
	})
	assert.Len(t, out, 2)
}

func TestCaseAndWhitespaceInsensitive(t *testing.T) {
	d := New(nil)
	assert.True(t, d.IsDuplicate(
		rec(" ACME ", "DATA ANALYST", "pune", ""),
		rec("acme", "data analyst", "Pune ", ""),
	))
	assert.False(t, d.IsDuplicate(
		rec("Acme", "Data Analyst", "Pune", ""),
		rec("Acme", "Business Analyst", "Pune", ""),
	))
}

func TestIdempotent(t *testing.T) {
	d := New(nil)
	in := []domain.JobRecord{
		rec("Acme", "Data Analyst", "Pune", domain.PlatformIndeed),
		rec("Acme", "Data Analyst", "Pune", domain.PlatformNaukri),
		rec("Beta", "Analyst", "Delhi", domain.PlatformLinkedIn),
		rec("Gamma", "Data Analyst Intern", "", domain.PlatformWellfound),
	}
	once := d.Dedupe(in)
	twice := d.Dedupe(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 3)
}

func TestEmpty(t *testing.T) {
	assert.Empty(t, New(nil).Dedupe(nil))
}
