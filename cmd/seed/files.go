package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"research-assessment/internal/config"
	"research-assessment/internal/db"
	"research-assessment/internal/migrations"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
)

type rubricFile struct {
	Rubrics []scoring.Rubric `yaml:"rubrics"`
}

type picklistFile struct {
	Subjects []schemas.Subject `yaml:"subjects"`
	Periods  []schemas.Period  `yaml:"periods"`
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadRubrics(path string) ([]scoring.Rubric, error) {
	var f rubricFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	if len(f.Rubrics) == 0 {
		return nil, fmt.Errorf("%s: no rubrics", path)
	}
	seen := map[string]bool{}
	for i := range f.Rubrics {
		rb := &f.Rubrics[i]
		if err := rb.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if seen[rb.ID] {
			return nil, fmt.Errorf("%s: duplicate rubric %q", path, rb.ID)
		}
		seen[rb.ID] = true
	}
	return f.Rubrics, nil
}

func loadPicklists(path string) (picklistFile, error) {
	var f picklistFile
	if err := readYAML(path, &f); err != nil {
		return f, err
	}
	for _, s := range f.Subjects {
		if s.ID == "" || s.Name == "" {
			return f, fmt.Errorf("%s: subject needs id and name", path)
		}
		if s.Kind != "member" && s.Kind != "department" {
			return f, fmt.Errorf("%s: subject %q has kind %q, want member or department", path, s.ID, s.Kind)
		}
	}
	for _, p := range f.Periods {
		if p.ID == "" || p.Name == "" {
			return f, fmt.Errorf("%s: period needs id and name", path)
		}
	}
	return f, nil
}

type rubricWriter interface {
	UpsertRubric(ctx context.Context, rb scoring.Rubric) error
}

type picklistWriter interface {
	UpsertSubject(ctx context.Context, s schemas.Subject) error
	UpsertPeriod(ctx context.Context, p schemas.Period) error
}

func applyRubrics(ctx context.Context, w rubricWriter, rubrics []scoring.Rubric) error {
	for _, rb := range rubrics {
		if err := w.UpsertRubric(ctx, rb); err != nil {
			return err
		}
	}
	return nil
}

func applyPicklists(ctx context.Context, w picklistWriter, f picklistFile) error {
	for _, s := range f.Subjects {
		if err := w.UpsertSubject(ctx, s); err != nil {
			return err
		}
	}
	for _, p := range f.Periods {
		if err := w.UpsertPeriod(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// openRepo migrates the configured database and opens a repository on it.
func openRepo() (*db.Repo, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	dbase := db.MustOpen(cfg.DatabaseURL)
	return db.NewRepo(dbase), func() { _ = dbase.Close() }, nil
}
