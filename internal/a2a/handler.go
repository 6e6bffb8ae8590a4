// Package a2a exposes the generator over HTTP: an A2A JSON-RPC endpoint and
// plain JSON endpoints for each generation step.
package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/agent"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Generator is the part of generator.Generator the handler needs.
type Generator interface {
	GenerateProfile(ctx context.Context, guidance string) (string, error)
	ProposeEvents(ctx context.Context, profile string) (models.EventSet, error)
	GenerateSchedule(ctx context.Context, persona, startDate, endDate string) (string, error)
}

// DefaultWindow is the schedule length used when a message gives no dates.
const DefaultWindow = 7

type A2AHandler struct {
	generator Generator
	log       *slog.Logger
	now       func() time.Time
}

func NewA2AHandler(generator Generator, log *slog.Logger) *A2AHandler {
	return &A2AHandler{
		generator: generator,
		log:       log,
		now:       time.Now,
	}
}

// RequestLoggingMiddleware logs every request with its status and latency.
func RequestLoggingMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

// HandleGenerator processes A2A messages
func (h *A2AHandler) HandleGenerator(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("failed to read request body", "error", err)
		h.sendErrorResponse(c, nil, "Failed to read request body", CodeParseError)
		return
	}
	h.log.Debug("raw request body", "body", string(bodyBytes))

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil {
		h.log.Error("failed to decode request", "error", err)
		h.sendErrorResponse(c, nil, "Invalid request format", CodeParseError)
		return
	}

	// Some clients post the message params without the JSON-RPC wrapper.
	if rpcReq.JSONRPC == "" && rpcReq.Method == "" {
		h.handleDirectMessage(c, bodyBytes)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		h.log.Warn("invalid JSON-RPC version", "version", rpcReq.JSONRPC)
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		h.log.Warn("unknown method", "method", rpcReq.Method)
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *A2AHandler) handleDirectMessage(c *gin.Context, bodyBytes []byte) {
	h.log.Info("STATE: handling direct message")

	var msgParams MessageParams
	if err := json.Unmarshal(bodyBytes, &msgParams); err != nil || len(msgParams.Message.Parts) == 0 {
		h.sendErrorResponse(c, nil, "Invalid request format", CodeParseError)
		return
	}

	taskID := uuid.New().String()
	result := h.runTask(c.Request.Context(), taskID, msgParams.Message)
	h.sendSuccessResponse(c, taskID, result)
}

func (h *A2AHandler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	h.log.Info("STATE: handling JSON-RPC task")

	var msgParams MessageParams
	if len(rpcReq.Params) == 0 {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}
	if err := json.Unmarshal(rpcReq.Params, &msgParams); err != nil {
		h.log.Error("failed to unmarshal params", "error", err)
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}

	taskID := taskIDOf(rpcReq.ID)
	result := h.runTask(c.Request.Context(), taskID, msgParams.Message)
	h.sendSuccessResponse(c, rpcReq.ID, result)
}

func taskIDOf(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return uuid.New().String()
	case string:
		if v == "" {
			return uuid.New().String()
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// taskRequest is what a message asks for.
type taskRequest struct {
	Guidance  string
	Persona   string
	StartDate string
	EndDate   string
}

// runTask turns one message into a task result. Generation failures become
// failed tasks, not JSON-RPC errors.
func (h *A2AHandler) runTask(ctx context.Context, taskID string, msg A2AMessage) TaskResult {
	req := h.extractRequest(msg)
	h.log.Info("extracted request",
		"guidance", req.Guidance,
		"has_persona", req.Persona != "",
		"start_date", req.StartDate,
		"end_date", req.EndDate,
	)

	if req.Guidance == "" && req.Persona == "" {
		return h.createErrorTaskResult(taskID,
			"Please describe the persona to generate, for example \"A 23-year-old Asian female.\"")
	}
	if err := h.resolveWindow(&req); err != nil {
		return h.createErrorTaskResult(taskID, err.Error())
	}

	persona := req.Persona
	if persona == "" {
		profile, err := h.generator.GenerateProfile(ctx, req.Guidance)
		if err != nil {
			h.log.Error("failed to generate profile", "error", err)
			return h.createErrorTaskResult(taskID, fmt.Sprintf("Failed to generate persona profile: %v", err))
		}
		persona = profile
	}

	schedule, err := h.generator.GenerateSchedule(ctx, persona, req.StartDate, req.EndDate)
	if err != nil {
		h.log.Error("failed to generate schedule", "error", err)
		return h.createErrorTaskResult(taskID, fmt.Sprintf("Failed to generate schedule: %v", err))
	}

	h.log.Info("STATE: generation succeeded", "task_id", taskID)
	return h.createSuccessTaskResult(taskID, req, persona, schedule)
}

// resolveWindow fills a missing window with DefaultWindow days from today and
// checks the bounds.
func (h *A2AHandler) resolveWindow(req *taskRequest) error {
	if req.StartDate == "" {
		req.StartDate = h.now().Format(models.DateLayout)
	}
	start, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		return fmt.Errorf("start_date %q must use the format YYYY-MM-DD", req.StartDate)
	}
	if req.EndDate == "" {
		req.EndDate = start.AddDate(0, 0, DefaultWindow-1).Format(models.DateLayout)
	}
	end, err := time.Parse(models.DateLayout, req.EndDate)
	if err != nil {
		return fmt.Errorf("end_date %q must use the format YYYY-MM-DD", req.EndDate)
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", req.EndDate, req.StartDate)
	}
	return nil
}

func (h *A2AHandler) extractRequest(msg A2AMessage) taskRequest {
	var (
		req   taskRequest
		texts []string
	)

	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if text := cleanText(part.Text); text != "" {
				texts = append(texts, text)
			}
		case "data":
			h.applyDataPart(&req, &texts, part.Data)
		}
	}

	if req.Guidance == "" {
		req.Guidance = strings.TrimSpace(strings.Join(texts, " "))
	}
	return req
}

// applyDataPart reads either an options object (guidance, persona,
// start_date, end_date) or a conversation history array, in which case the
// most recent user text is used.
func (h *A2AHandler) applyDataPart(req *taskRequest, texts *[]string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.log.Warn("failed to marshal data part", "error", err)
		return
	}
	if s, ok := data.(string); ok {
		raw = []byte(s)
	}

	var options struct {
		Guidance  string `json:"guidance"`
		Persona   string `json:"persona"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.Unmarshal(raw, &options); err == nil {
		if options.Guidance != "" {
			req.Guidance = strings.TrimSpace(options.Guidance)
		}
		if options.Persona != "" {
			req.Persona = strings.TrimSpace(options.Persona)
		}
		if options.StartDate != "" {
			req.StartDate = strings.TrimSpace(options.StartDate)
		}
		if options.EndDate != "" {
			req.EndDate = strings.TrimSpace(options.EndDate)
		}
		return
	}

	var history []map[string]interface{}
	if err := json.Unmarshal(raw, &history); err != nil {
		h.log.Warn("unrecognized data part", "error", err)
		return
	}
	for i := len(history) - 1; i >= 0; i-- {
		item := history[i]
		if kind, _ := item["kind"].(string); kind != "text" {
			continue
		}
		text, _ := item["text"].(string)
		text = cleanText(text)
		if text == "" || isProgressText(text) {
			continue
		}
		*texts = append(*texts, text)
		return
	}
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "<p>", "")
	text = strings.ReplaceAll(text, "</p>", "")
	return strings.TrimSpace(text)
}

// isProgressText reports agent status lines echoed back in a history.
func isProgressText(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "generating") ||
		strings.Contains(lower, "creating") ||
		strings.Trim(text, ".") == ""
}

func (h *A2AHandler) createSuccessTaskResult(taskID string, req taskRequest, persona, schedule string) TaskResult {
	responseText := formatTaskResponse(req, persona, schedule)

	return TaskResult{
		ID:        taskID,
		ContextID: uuid.New().String(),
		Kind:      "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    &taskID,
				Parts: []MessagePart{
					TextPart(responseText),
				},
			},
		},
		Artifacts: []Artifact{
			{
				ArtifactID: uuid.New().String(),
				Name:       ArtifactProfile,
				Parts:      []MessagePart{TextPart(persona)},
			},
			{
				ArtifactID: uuid.New().String(),
				Name:       ArtifactSchedule,
				Parts:      []MessagePart{TextPart(schedule)},
			},
		},
	}
}

func (h *A2AHandler) createErrorTaskResult(taskID string, errorMsg string) TaskResult {
	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateFailed,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    &taskID,
				Parts: []MessagePart{
					TextPart(errorMsg),
				},
			},
		},
	}
}

func formatTaskResponse(req taskRequest, persona, schedule string) string {
	var builder strings.Builder
	if req.Guidance != "" {
		builder.WriteString(fmt.Sprintf("# Persona for: %s\n\n", req.Guidance))
	} else {
		builder.WriteString("# Persona\n\n")
	}
	builder.WriteString(strings.TrimSpace(persona))
	builder.WriteString(fmt.Sprintf("\n\n# Schedule %s to %s\n\n", req.StartDate, req.EndDate))
	builder.WriteString(strings.TrimSpace(schedule))
	builder.WriteString("\n")
	return builder.String()
}

// ServeAgentCard serves the agent card using Gin
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	if err := agent.LoadAgentCard(); err != nil {
		h.log.Error("error loading agent card", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent card not available"})
		return
	}
	c.Data(http.StatusOK, "application/json", agent.AgentCardData)
}

// HandleProfile generates one persona profile.
func (h *A2AHandler) HandleProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	profile, err := h.generator.GenerateProfile(c.Request.Context(), req.Guidance)
	if err != nil {
		h.sendGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Guidance: req.Guidance, Profile: profile})
}

// HandleEvents proposes the recurring events of a persona.
func (h *A2AHandler) HandleEvents(c *gin.Context) {
	var req EventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	events, err := h.generator.ProposeEvents(c.Request.Context(), req.Profile)
	if err != nil {
		h.sendGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// HandleSchedule generates a schedule, creating the persona first when only
// guidance is given. With validate set the answer is also decoded.
func (h *A2AHandler) HandleSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.Persona == "" && req.Guidance == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "persona or guidance is required"})
		return
	}
	if req.EndDate < req.StartDate {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end_date is before start_date"})
		return
	}

	ctx := c.Request.Context()
	persona := req.Persona
	if persona == "" {
		profile, err := h.generator.GenerateProfile(ctx, req.Guidance)
		if err != nil {
			h.sendGenerationError(c, err)
			return
		}
		persona = profile
	}

	schedule, err := h.generator.GenerateSchedule(ctx, persona, req.StartDate, req.EndDate)
	if err != nil {
		h.sendGenerationError(c, err)
		return
	}

	resp := ScheduleResponse{
		Persona:   persona,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Schedule:  schedule,
	}
	if req.Validate {
		parsed, err := schema.DecodeSchedule(schedule)
		if err != nil {
			h.sendGenerationError(c, err)
			return
		}
		resp.Entries = parsed.Schedule
	}
	c.JSON(http.StatusOK, resp)
}

// sendGenerationError maps schema violations to 422 and everything else,
// which comes from the model provider, to 502.
func (h *A2AHandler) sendGenerationError(c *gin.Context, err error) {
	h.log.Error("generation failed", "path", c.Request.URL.Path, "error", err)

	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Violations: verr.Violations})
		return
	}
	c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	c.JSON(http.StatusOK, response)
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id interface{}, message string, code int) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}

	h.log.Warn("sending JSON-RPC error", "code", code, "message", message)
	c.JSON(http.StatusOK, response) // JSON-RPC errors are sent with 200 OK
}
