// internal/catalog/jobs.go

// Package catalog loads the read-only inputs of a batch run: the active job
// pool from the search index and user profiles with their application history
// from the relational store, fronted by a short-lived cache.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// jobPageSize bounds one search page. The catalog pages with search_after so
// a large active pool never needs deep from/size pagination.
const jobPageSize = 500

// JobCatalog reads the active candidate pool from Elasticsearch.
type JobCatalog struct {
	es    *elasticsearch.Client
	index string
	log   logger.Logger
}

func NewJobCatalog(es *elasticsearch.Client, index string, log logger.Logger) *JobCatalog {
	return &JobCatalog{
		es:    es,
		index: index,
		log:   log.WithFields(map[string]interface{}{"component": "job-catalog"}),
	}
}

// jobDocument mirrors the index mapping.
type jobDocument struct {
	JobID                string          `json:"job_id"`
	CompanyID            string          `json:"company_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Requirements         string          `json:"requirements"`
	Fee                  *float64        `json:"fee"`
	HourlyWage           *float64        `json:"hourly_wage"`
	SalaryMin            int             `json:"salary_min"`
	SalaryMax            int             `json:"salary_max"`
	LocationCodes        []string        `json:"location_codes"`
	CategoryCodes        []string        `json:"category_codes"`
	Features             map[string]bool `json:"features"`
	PostedAt             string          `json:"posted_at"`
	ApplicationCount360d int             `json:"application_count_360d"`
	ViewCount            int             `json:"view_count"`
	ClickCount           int             `json:"click_count"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source jobDocument       `json:"_source"`
			Sort   []json.RawMessage `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// ActiveJobs returns every active listing, ordered by job id for a
// deterministic pool.
func (c *JobCatalog) ActiveJobs(ctx context.Context) ([]models.JobCandidate, error) {
	var (
		jobs  []models.JobCandidate
		after []json.RawMessage
	)

	for {
		page, next, err := c.searchPage(ctx, after)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, page...)
		if len(page) < jobPageSize || next == nil {
			break
		}
		after = next
	}

	c.log.Info("loaded active job pool", map[string]interface{}{"jobs": len(jobs)})
	return jobs, nil
}

func (c *JobCatalog) searchPage(ctx context.Context, after []json.RawMessage) ([]models.JobCandidate, []json.RawMessage, error) {
	query := map[string]interface{}{
		"size": jobPageSize,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"status": "active"},
		},
		"sort": []map[string]interface{}{
			{"job_id": "asc"},
		},
	}
	if after != nil {
		query["search_after"] = after
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, nil, errors.NewCatalogQueryFailedError(err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, nil, errors.NewCatalogQueryFailedError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, errors.NewCatalogQueryFailedError(err)
	}
	if res.IsError() {
		return nil, nil, errors.NewCatalogQueryFailedError(
			fmt.Errorf("search returned status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, errors.NewCatalogQueryFailedError(err)
	}

	jobs := make([]models.JobCandidate, 0, len(parsed.Hits.Hits))
	var lastSort []json.RawMessage
	for _, hit := range parsed.Hits.Hits {
		jobs = append(jobs, hit.Source.toModel())
		lastSort = hit.Sort
	}
	return jobs, lastSort, nil
}

func (d jobDocument) toModel() models.JobCandidate {
	job := models.JobCandidate{
		JobID:                d.JobID,
		CompanyID:            d.CompanyID,
		Title:                d.Title,
		Description:          d.Description,
		Requirements:         d.Requirements,
		Fee:                  d.Fee,
		HourlyWage:           d.HourlyWage,
		SalaryMin:            d.SalaryMin,
		SalaryMax:            d.SalaryMax,
		LocationCodes:        d.LocationCodes,
		CategoryCodes:        d.CategoryCodes,
		Features:             d.Features,
		ApplicationCount360d: d.ApplicationCount360d,
		ViewCount:            d.ViewCount,
		ClickCount:           d.ClickCount,
	}
	if t, err := time.Parse(time.RFC3339, d.PostedAt); err == nil {
		job.PostedAt = t
	}
	return job
}
