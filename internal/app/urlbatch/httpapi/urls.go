package httpapi

import (
	"net/http"

	"urlindex.local/gee"
	"urlindex.local/internal/app/urlbatch"
	"urlindex.local/internal/platform/metrics"
)

type InputRequest struct {
	Input string `json:"input"`
}

type LineResponse struct {
	Index     int              `json:"index"`
	Text      string           `json:"text"`
	Outcome   urlbatch.Outcome `json:"outcome"`
	URLs      []string         `json:"urls,omitempty"`
	Corrected string           `json:"corrected"`
}

type ParseResponse struct {
	URLs           []string             `json:"urls"`
	Records        []urlbatch.URLRecord `json:"records"`
	CorrectedInput string               `json:"corrected_input"`
	HasErrors      bool                 `json:"has_errors"`
	InvalidLines   []string             `json:"invalid_lines"`
	InvalidSummary string               `json:"invalid_summary,omitempty"`
	Lines          []LineResponse       `json:"lines"`
}

func newParseResponse(res urlbatch.ParseResult) ParseResponse {
	out := ParseResponse{
		URLs:           res.URLs,
		Records:        res.Records,
		CorrectedInput: res.CorrectedInput,
		HasErrors:      res.HasErrors,
		InvalidLines:   res.InvalidLines,
		InvalidSummary: urlbatch.FormatInvalidLines(res.InvalidLines, urlbatch.DefaultInvalidLinesShown),
		Lines:          make([]LineResponse, 0, len(res.Lines)),
	}
	if out.Records == nil {
		out.Records = []urlbatch.URLRecord{}
	}
	if out.InvalidLines == nil {
		out.InvalidLines = []string{}
	}
	for _, l := range res.Lines {
		if l.Line.Blank() {
			continue
		}
		out.Lines = append(out.Lines, LineResponse{
			Index:     l.Line.Index,
			Text:      l.Line.Text,
			Outcome:   l.Outcome,
			URLs:      l.URLs,
			Corrected: l.Corrected,
		})
	}
	return out
}

func recordLineOutcomes(res urlbatch.ParseResult) {
	for outcome, n := range res.Counts() {
		metrics.URLBatchLines.WithLabelValues(outcome.String()).Add(float64(n))
	}
}

func NewParseHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req InputRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		res := urlbatch.Parse(req.Input)
		recordLineOutcomes(res)
		ctx.JSON(http.StatusOK, newParseResponse(res))
	}
}

type CleanResponse struct {
	Cleaned string `json:"cleaned"`
}

func NewCleanHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req InputRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		ctx.JSON(http.StatusOK, CleanResponse{Cleaned: urlbatch.CleanInput(req.Input)})
	}
}

type DedupeRequest struct {
	URLs []string `json:"urls"`
}

type DedupeResponse struct {
	UniqueURLs     []string `json:"unique_urls"`
	DuplicateCount int      `json:"duplicate_count"`
}

func NewDedupeHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req DedupeRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		res := urlbatch.Deduplicate(req.URLs)
		ctx.JSON(http.StatusOK, DedupeResponse{
			UniqueURLs:     res.Unique,
			DuplicateCount: res.DuplicateCount,
		})
	}
}
