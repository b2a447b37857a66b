package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
)

func main() {
	base := envOr("API_BASE_URL", "http://localhost:8000")
	token := envOr("API_TOKEN", "dev-secret-token")

	baseFlag := flag.String("base", base, "API base URL (e.g., http://localhost:8000)")
	tokenFlag := flag.String("token", token, "API token for admin endpoints")
	waitArchive := flag.Duration("wait-archive", 15*time.Second, "How long to poll for the archive job after submit")
	flag.Parse()

	httpc := &http.Client{Timeout: 12 * time.Second}
	api := *baseFlag

	// 1) Reference data
	var rubrics []scoring.Rubric
	if err := call(httpc, http.MethodGet, api+"/rubrics", *tokenFlag, nil, &rubrics); err != nil {
		fatalf("list rubrics: %v", err)
	}
	var subjects []schemas.Subject
	if err := call(httpc, http.MethodGet, api+"/subjects?kind=member", *tokenFlag, nil, &subjects); err != nil {
		fatalf("list subjects: %v", err)
	}
	var periods []schemas.Period
	if err := call(httpc, http.MethodGet, api+"/periods", *tokenFlag, nil, &periods); err != nil {
		fatalf("list periods: %v", err)
	}
	if len(rubrics) == 0 || len(subjects) == 0 || len(periods) == 0 {
		fatalf("seed rubrics and picklists first (go run ./cmd/seed)")
	}
	rubric := rubrics[0]
	fmt.Printf("✅ Reference data: rubric=%s subject=%s period=%s\n", rubric.ID, subjects[0].ID, periods[0].ID)

	// 2) Start a member wizard
	var created schemas.CreateWizardResp
	if err := call(httpc, http.MethodPost, api+"/wizards", *tokenFlag, map[string]string{"variant": "member"}, &created); err != nil {
		fatalf("create wizard: %v", err)
	}
	wiz := api + "/wizards/" + created.WizardID
	session := created.SessionToken
	fmt.Printf("✅ Created wizard: id=%s\n", created.WizardID)

	// 3) Empty info step must block
	var nav schemas.NavigateResp
	if err := call(httpc, http.MethodPost, wiz+"/next", session, nil, &nav); err != nil {
		fatalf("next: %v", err)
	}
	if nav.Allowed {
		fatalf("empty info step was not blocked")
	}
	fmt.Printf("✅ Blocked on empty info step: %v\n", keys(nav.Wizard.ValidationErrors))

	// 4) Fill the draft
	scores := map[string]float64{}
	for i, c := range rubric.Criteria {
		scores[c.ID] = float64(5 - i%3)
	}
	edits := []map[string]any{
		{"subject_id": subjects[0].ID, "period_id": periods[0].ID, "rubric_id": rubric.ID},
		{"selections": []string{"smoke-project"}},
		{"scores": scores, "overall_comment": "smoke run"},
	}
	for _, e := range edits {
		if err := call(httpc, http.MethodPatch, wiz, session, e, nil); err != nil {
			fatalf("edit: %v", err)
		}
	}
	var live schemas.ScoreOut
	if err := call(httpc, http.MethodGet, wiz+"/score", session, nil, &live); err != nil {
		fatalf("score: %v", err)
	}
	fmt.Printf("✅ Live score: %d %s (%d/%d scored)\n", live.Total, live.Label, live.Scored, live.Criteria)

	// 5) Walk to confirmation and submit
	for step := 1; step <= 3; step++ {
		if err := call(httpc, http.MethodPost, wiz+"/next", session, nil, &nav); err != nil {
			fatalf("next: %v", err)
		}
		if !nav.Allowed {
			fatalf("blocked at step %d: %v", nav.Wizard.CurrentStep, keys(nav.Wizard.ValidationErrors))
		}
	}
	var submitted schemas.SubmitResp
	if err := call(httpc, http.MethodPost, wiz+"/submit", session, nil, &submitted); err != nil {
		fatalf("submit: %v", err)
	}
	id := submitted.Submission.AssessmentID
	fmt.Printf("✅ Submitted assessment %s: %d %s\n", id, submitted.Submission.ComputedTotal, submitted.Submission.ComputedResultLabel)

	// 6) Poll for the archive job
	deadline := time.Now().Add(*waitArchive)
	var stored schemas.AssessmentOut
	for {
		if err := call(httpc, http.MethodGet, api+"/assessments/"+id, *tokenFlag, nil, &stored); err != nil {
			fatalf("get assessment: %v", err)
		}
		if stored.ReportRef != "" {
			fmt.Printf("✅ Archived: %s, %s\n", stored.ArchiveRef, stored.ReportRef)
			var archived schemas.Submission
			if err := call(httpc, http.MethodGet, api+"/assessments/"+id+"/archive", *tokenFlag, nil, &archived); err != nil {
				fatalf("get archive: %v", err)
			}
			if archived.AssessmentID != id || archived.ComputedTotal != submitted.Submission.ComputedTotal {
				fatalf("archive does not match submission:\n%s", compactJSON(archived))
			}
			fmt.Printf("✅ Archive matches submission (total=%d)\n", archived.ComputedTotal)
			break
		}
		if time.Now().After(deadline) {
			fmt.Printf("ℹ️  Archive not present yet (is the worker running?). Current assessment:\n%s\n", compactJSON(stored))
			break
		}
		time.Sleep(2 * time.Second)
	}

	fmt.Printf("🎉 Smoke run OK. AssessmentID=%s\n", id)
}

// --- helpers ---

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func call(c *http.Client, method, url, bearer string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s %s -> %d: %s", method, url, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func compactJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
