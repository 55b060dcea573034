package api

import (
	"fmt"
	"strings"
)

// maxBatchSize caps one batch call; larger lists should be windowed by the
// caller so a single request cannot monopolize the query budget.
const maxBatchSize = 100

// ValidateRequest is the body of POST /api/v1/validate and /resolve.
type ValidateRequest struct {
	ResourceName string `json:"resourceName"`
	ResourceType string `json:"resourceType"`
}

func (r ValidateRequest) Validate() error {
	if strings.TrimSpace(r.ResourceName) == "" {
		return fmt.Errorf("resourceName is required")
	}
	if strings.TrimSpace(r.ResourceType) == "" {
		return fmt.Errorf("resourceType is required")
	}
	return nil
}

// BatchValidateRequest is the body of POST /api/v1/validate/batch.
type BatchValidateRequest struct {
	Requests []ValidateRequest `json:"requests"`
}

func (r BatchValidateRequest) Validate() error {
	if len(r.Requests) == 0 {
		return fmt.Errorf("requests must not be empty")
	}
	if len(r.Requests) > maxBatchSize {
		return fmt.Errorf("requests exceeds the batch limit of %d", maxBatchSize)
	}
	for i, req := range r.Requests {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("requests[%d]: %w", i, err)
		}
	}
	return nil
}
