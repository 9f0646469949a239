package outwriter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRepoReport(repo string) schema.RepoReport {
	return schema.RepoReport{
		Repo:        repo,
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Report: schema.MetricsReport{
			AgeDistribution: schema.AgeDistribution{Fresh: 4, Recent: 3, Aging: 2, Stale: 0, Ancient: 1},
			PriorityBalance: schema.PriorityBalance{High: 2, Medium: 3, Low: 1, Ungroomed: 4},
			Velocity: schema.Velocity{
				WindowDays:            14,
				IssuesCreatedInWindow: 7,
				IssuesGroomedInWindow: 3,
				NetGrowthRate:         7,
				AverageAgeToGroom:     4.25,
				TotalIssues:           10,
			},
			HealthScore: schema.HealthScore{
				Score:   71,
				Rating:  schema.NeedsAttentionRating,
				Factors: schema.HealthFactors{AgeHealth: 90, PriorityHealth: 60, VelocityHealth: 58},
			},
			Problems: []schema.Problem{
				{Type: schema.GroomingBacklogProblem, Severity: schema.WarningSeverity, Message: "4 issues need grooming", Count: 4},
			},
		},
	}
}

// reportMetricRows is the number of non-problem rows per report.
const reportMetricRows = 5 + 4 + 7 + 5

func TestWriteReports_Text(t *testing.T) {
	cfg := testConfig(t, schema.TextOut)
	require.NoError(t, WriteReports([]schema.RepoReport{sampleRepoReport("acme/api")}, cfg, 1500*time.Millisecond))

	out := readOutput(t, cfg)
	assert.Contains(t, out, "Backlog health for acme/api: 71 (needs-attention)")
	assert.Contains(t, out, "8-28")
	assert.Contains(t, out, ">180")
	assert.Contains(t, out, schema.DefaultHighLabel)
	assert.Contains(t, out, "4 issues need grooming")
	assert.Contains(t, out, "Created (14d)")
	assert.Contains(t, out, "Analyzed 10 issues across 1 repositories in 1.5s")
}

func TestWriteReports_TextNoProblems(t *testing.T) {
	cfg := testConfig(t, schema.TextOut)
	rr := sampleRepoReport("acme/api")
	rr.Report.Problems = nil
	require.NoError(t, WriteReports([]schema.RepoReport{rr}, cfg, time.Second))
	assert.Contains(t, readOutput(t, cfg), "No problems detected.")
}

func TestWriteReports_JSONSingle(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut)
	rr := sampleRepoReport("acme/api")
	require.NoError(t, WriteReports([]schema.RepoReport{rr}, cfg, time.Second))

	var got schema.MetricsReport
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
	assert.Equal(t, rr.Report, got)
}

func TestWriteReports_JSONMulti(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut)
	reports := []schema.RepoReport{sampleRepoReport("acme/api"), sampleRepoReport("acme/web")}
	require.NoError(t, WriteReports(reports, cfg, time.Second))

	var got []schema.RepoReport
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "acme/web", got[1].Repo)
	assert.Equal(t, 71, got[1].Report.HealthScore.Score)
}

func TestWriteReports_CSV(t *testing.T) {
	t.Run("single repo", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		require.NoError(t, WriteReports([]schema.RepoReport{sampleRepoReport("acme/api")}, cfg, time.Second))

		lines := strings.Split(strings.TrimSpace(readOutput(t, cfg)), "\n")
		require.Len(t, lines, 1+reportMetricRows+1)
		assert.Equal(t, "section,metric,value", lines[0])
		assert.Equal(t, "age,fresh,4", lines[1])
		assert.Contains(t, lines, "velocity,average_age_to_groom,4.25")
		assert.Contains(t, lines, "velocity,window_days,14")
		assert.Contains(t, lines, "velocity,issues_created_in_window,7")
		assert.Contains(t, lines, "health,rating,needs-attention")
		assert.Equal(t, "problem,grooming-backlog,warning: 4 issues need grooming", lines[len(lines)-1])
	})

	t.Run("multiple repos", func(t *testing.T) {
		cfg := testConfig(t, schema.CSVOut)
		reports := []schema.RepoReport{sampleRepoReport("acme/api"), sampleRepoReport("acme/web")}
		require.NoError(t, WriteReports(reports, cfg, time.Second))

		lines := strings.Split(strings.TrimSpace(readOutput(t, cfg)), "\n")
		require.Len(t, lines, 1+2*(reportMetricRows+1))
		assert.Equal(t, "repo,section,metric,value", lines[0])
		assert.Equal(t, "acme/api,age,fresh,4", lines[1])
		assert.Equal(t, "acme/web,age,fresh,4", lines[2+reportMetricRows])
	})
}

func TestAgeRanges(t *testing.T) {
	ranges := ageRanges(schema.DefaultHealthThresholds())
	assert.Equal(t, "0-7", ranges[schema.FreshBucket])
	assert.Equal(t, "29-90", ranges[schema.AgingBucket])
	assert.Equal(t, "91-180", ranges[schema.StaleBucket])
	assert.Len(t, ranges, len(schema.AllAgeBuckets))
}
