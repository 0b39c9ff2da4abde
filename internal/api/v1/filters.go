package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/domain"
)

type FiltersOutput struct {
	Body *domain.Filter
}

// UpdateFiltersInput leaves a filter untouched when its field is omitted.
// An explicit empty filterPriority clears the priority filter.
type UpdateFiltersInput struct {
	Body struct {
		FilterCompleted *bool   `json:"filterCompleted,omitempty" doc:"Hide completed tasks"`
		FilterPriority  *string `json:"filterPriority,omitempty" doc:"Show only this priority; empty string clears"`
	}
}

func RegisterFilterRoutes(api huma.API, store BoardStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-filters",
		Method:      http.MethodGet,
		Path:        "/filters",
		Summary:     "Get the view filters",
		Tags:        []string{"Filters"},
	}, func(_ context.Context, _ *struct{}) (*FiltersOutput, error) {
		f := store.Filters()
		return &FiltersOutput{Body: &f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-filters",
		Method:      http.MethodPut,
		Path:        "/filters",
		Summary:     "Change the view filters",
		Tags:        []string{"Filters"},
	}, func(_ context.Context, input *UpdateFiltersInput) (*FiltersOutput, error) {
		if fp := input.Body.FilterPriority; fp != nil {
			if *fp == "" {
				store.SetFilterPriority(nil)
			} else {
				p, err := parsePriority(*fp)
				if err != nil {
					return nil, err
				}
				store.SetFilterPriority(&p)
			}
		}
		if input.Body.FilterCompleted != nil {
			store.SetFilterCompleted(*input.Body.FilterCompleted)
		}
		f := store.Filters()
		return &FiltersOutput{Body: &f}, nil
	})
}
