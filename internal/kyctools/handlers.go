// ABOUTME: Handler implementations for the KYC tool pack.
// ABOUTME: Thin orchestration over the provider clients; no business rules.

package kyctools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/kyc-gateway/internal/poll"
	"github.com/2389/kyc-gateway/internal/risk"
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
	risk   *risk.Aggregator
}

type listCasesInput struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

func (h *handlers) ListCases(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in listCasesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if in.Status == "" {
		in.Status = "pending"
	}

	cases, err := h.deps.Records.ListCases(ctx, in.Status, in.Limit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"cases": cases, "count": len(cases)})
}

type getCaseInput struct {
	CaseID string `json:"case_id"`
}

func (h *handlers) GetCase(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getCaseInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	c, err := h.deps.Records.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

type getEntityInput struct {
	LEI string `json:"lei"`
}

func (h *handlers) GetEntity(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in getEntityInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if h.deps.Registry == nil {
		return nil, fmt.Errorf("entity registry provider is not configured")
	}

	entity, err := h.deps.Registry.GetByLEI(ctx, in.LEI)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entity)
}

type updateCaseInput struct {
	CaseID string `json:"case_id"`
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *handlers) UpdateCaseStatus(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in updateCaseInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if err := h.deps.Records.UpdateCaseField(ctx, in.CaseID, "status", in.Status); err != nil {
		return nil, err
	}
	// The note is a separate field update; the status transition above has
	// already committed on its own.
	if in.Note != "" {
		if err := h.deps.Records.UpdateCaseField(ctx, in.CaseID, "review_note", in.Note); err != nil {
			return nil, fmt.Errorf("status updated but note failed: %w", err)
		}
	}
	return json.Marshal(map[string]string{"case_id": in.CaseID, "status": in.Status})
}

type analyzeDocumentInput struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

func (h *handlers) AnalyzeDocument(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in analyzeDocumentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(in.Content)
	if err != nil {
		return nil, fmt.Errorf("content is not valid base64: %w", err)
	}

	result, err := h.deps.Poller.Run(ctx,
		func(ctx context.Context) (string, error) {
			return h.deps.Documents.Submit(ctx, data, in.MimeType)
		},
		h.deps.Documents.Status,
	)
	if err != nil {
		var opErr *poll.OperationError
		switch {
		case errors.As(err, &opErr):
			return nil, fmt.Errorf("document analysis failed: %s", opErr.Detail)
		case errors.Is(err, poll.ErrTimeout):
			return nil, fmt.Errorf("document analysis did not complete in time: %w", err)
		default:
			return nil, err
		}
	}

	return json.Marshal(map[string]any{"analysis": json.RawMessage(result)})
}

type searchRegistryInput struct {
	Name string `json:"name"`
}

func (h *handlers) SearchRegistry(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in searchRegistryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if h.deps.Registry == nil {
		return nil, fmt.Errorf("entity registry provider is not configured")
	}

	entities, err := h.deps.Registry.SearchByName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"entities": entities, "count": len(entities)})
}

type entityKYCInput struct {
	SubjectName string `json:"subject_name"`
	LEI         string `json:"lei"`
}

func (h *handlers) RunEntityKYC(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in entityKYCInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	assessment := h.risk.Assess(ctx, risk.Subject{Name: in.SubjectName, LEI: in.LEI})
	return json.Marshal(assessment)
}
