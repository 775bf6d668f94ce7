package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/skillsharecyber/courseplatform/internal/models"
)

const CourseIndex = "courses"

type courseDoc struct {
	ID           uint    `json:"id"`
	CourseName   string  `json:"course_name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnail_url"`
}

// Search runs a fuzzy multi-field query over the course index.
func Search(ctx context.Context, es *elasticsearch.Client, query string, from, size int) (int64, []models.Course, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"course_name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(CourseIndex),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source courseDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	courses := make([]models.Course, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		courses[i] = models.Course{
			ID:           hit.Source.ID,
			CourseName:   hit.Source.CourseName,
			Description:  hit.Source.Description,
			Price:        hit.Source.Price,
			ThumbnailURL: hit.Source.ThumbnailURL,
		}
	}
	return r.Hits.Total.Value, courses, nil
}

// IndexCourse upserts the searchable projection of a course. A nil client is
// a no-op so handlers keep working when search is not configured.
func IndexCourse(ctx context.Context, es *elasticsearch.Client, course *models.Course) error {
	if es == nil {
		return nil
	}
	doc := courseDoc{
		ID:           course.ID,
		CourseName:   course.CourseName,
		Description:  course.Description,
		Price:        course.Price,
		ThumbnailURL: course.ThumbnailURL,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: encode document: %w", err)
	}
	res, err := es.Index(
		CourseIndex,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(course.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("search: index course %d: %w", course.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index course %d: %s", course.ID, res.Status())
	}
	return nil
}

// RemoveCourse deletes the course document from the index.
func RemoveCourse(ctx context.Context, es *elasticsearch.Client, courseID uint) error {
	if es == nil {
		return nil
	}
	res, err := es.Delete(
		CourseIndex,
		strconv.FormatUint(uint64(courseID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: remove course %d: %w", courseID, err)
	}
	defer res.Body.Close()
	return nil
}
