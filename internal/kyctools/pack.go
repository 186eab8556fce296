// ABOUTME: The KYC tool pack: tool definitions and handlers over the record
// ABOUTME: store, document analysis, entity registry, and screening providers.

package kyctools

import (
	"context"
	"log/slog"

	"github.com/2389/kyc-gateway/internal/docanalysis"
	"github.com/2389/kyc-gateway/internal/gleif"
	"github.com/2389/kyc-gateway/internal/poll"
	"github.com/2389/kyc-gateway/internal/records"
	"github.com/2389/kyc-gateway/internal/risk"
	"github.com/2389/kyc-gateway/internal/screening"
	"github.com/2389/kyc-gateway/internal/tools"
)

// CaseStatuses are the record store states a case can be moved through.
var CaseStatuses = []string{"pending", "in_review", "approved", "rejected"}

// Deps are the external collaborators the pack's handlers use. Registry and
// Screening are optional; the corresponding risk checks report Skipped when
// they are absent.
type Deps struct {
	Records   *records.Client
	Documents *docanalysis.Client
	Registry  *gleif.Client
	Screening *screening.Client
	Poller    *poll.Poller
	Logger    *slog.Logger
}

// Register adds the KYC tools to the registry.
func Register(reg *tools.Registry, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{
		deps:   deps,
		logger: logger.With("component", "kyctools"),
		risk:   newAggregator(deps, logger),
	}

	pack := []*tools.Tool{
		{
			Name:        "list_pending_cases",
			Description: "List verification cases from the record store, filtered by status",
			InputSchema: tools.Object(map[string]*tools.Property{
				"status": {Type: "string", Enum: CaseStatuses, Description: "Case status to filter on (default: pending)"},
				"limit":  {Type: "integer", Description: "Maximum number of cases to return"},
			}),
			Handler: h.ListCases,
		},
		{
			Name:        "get_case",
			Description: "Fetch a single verification case by its identifier",
			InputSchema: tools.Object(map[string]*tools.Property{
				"case_id": {Type: "string", Description: "Record store case identifier"},
			}, "case_id"),
			Handler: h.GetCase,
		},
		{
			Name:        "get_entity",
			Description: "Fetch a legal-entity registry record by its LEI code",
			InputSchema: tools.Object(map[string]*tools.Property{
				"lei": {Type: "string", Description: "LEI code of the entity"},
			}, "lei"),
			Handler: h.GetEntity,
		},
		{
			Name:        "update_case_status",
			Description: "Set the status of a verification case",
			InputSchema: tools.Object(map[string]*tools.Property{
				"case_id": {Type: "string", Description: "Record store case identifier"},
				"status":  {Type: "string", Enum: CaseStatuses, Description: "New case status"},
				"note":    {Type: "string", Description: "Optional review note to attach"},
			}, "case_id", "status"),
			Handler: h.UpdateCaseStatus,
		},
		{
			Name:        "analyze_document",
			Description: "Submit a document for analysis and wait for the extracted fields",
			InputSchema: tools.Object(map[string]*tools.Property{
				"content":   {Type: "string", Description: "Base64-encoded document bytes"},
				"mime_type": {Type: "string", Description: "Document MIME type, e.g. application/pdf"},
			}, "content", "mime_type"),
			Handler: h.AnalyzeDocument,
		},
		{
			Name:        "search_entity_registry",
			Description: "Search the public legal-entity registry by name",
			InputSchema: tools.Object(map[string]*tools.Property{
				"name": {Type: "string", Description: "Legal name to search for"},
			}, "name"),
			Handler: h.SearchRegistry,
		},
		{
			Name:        "run_legal_entity_kyc",
			Description: "Run the combined KYC checks on a legal entity and return an overall risk level",
			InputSchema: tools.Object(map[string]*tools.Property{
				"subject_name": {Type: "string", Description: "Legal name of the entity under review"},
				"lei":          {Type: "string", Description: "Optional LEI code of the entity"},
			}, "subject_name"),
			Handler: h.RunEntityKYC,
		},
	}

	for _, tool := range pack {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// newAggregator wires the configured providers into the fixed check order:
// registry existence, identifier validation, adverse-signal screening.
func newAggregator(deps Deps, logger *slog.Logger) *risk.Aggregator {
	var directory risk.Directory
	if deps.Registry != nil {
		directory = &directoryAdapter{client: deps.Registry}
	}
	var screener risk.Screener
	if deps.Screening != nil {
		screener = &screenerAdapter{client: deps.Screening}
	}

	return risk.NewAggregator(logger,
		risk.NewRegistryCheck(directory),
		risk.NewIdentifierCheck(),
		risk.NewAdverseSignalCheck(screener, risk.NewKeywordClassifier()),
	)
}

// directoryAdapter narrows the registry client to the risk package's view.
type directoryAdapter struct {
	client *gleif.Client
}

func (a *directoryAdapter) SearchByName(ctx context.Context, name string) ([]risk.Record, error) {
	entities, err := a.client.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]risk.Record, len(entities))
	for i, e := range entities {
		out[i] = risk.Record{LEI: e.LEI, Name: e.Name, Status: e.Status}
	}
	return out, nil
}

// screenerAdapter narrows the screening client to the risk package's view.
type screenerAdapter struct {
	client *screening.Client
}

func (a *screenerAdapter) Ask(ctx context.Context, prompt string) (string, error) {
	answer, err := a.client.Ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}
