// Package mcpserver отдаёт напоминания владельца как инструменты MCP.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
)

const (
	serverName    = "vehicle-reminder"
	serverVersion = "1.0.0"
)

type Server struct {
	mcpServer *server.MCPServer
	svc       *service.ReminderService
	ownerID   int64
}

// listedReminder - напоминание в ответе list_reminders. Status пуст, если
// напоминание нельзя классифицировать; тогда заполнен Error.
type listedReminder struct {
	models.Reminder
	Status any    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewServer создаёт MCP-сервер, работающий от имени ownerID.
func NewServer(svc *service.ReminderService, ownerID int64) *Server {
	s := &Server{svc: svc, ownerID: ownerID}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_vehicles",
			mcp.WithDescription("List the owner's vehicles"),
		),
		s.handleListVehicles,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders sorted by urgency with computed due status"),
			mcp.WithNumber("vehicle_id", mcp.Description("Only reminders of this vehicle (default: all)")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a reminder for a vehicle; due_date and/or due_mileage is required"),
			mcp.WithNumber("vehicle_id", mcp.Required(), mcp.Description("Vehicle ID")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("due_date", mcp.Description("Due date, YYYY-MM-DD")),
			mcp.WithNumber("due_mileage", mcp.Description("Due odometer reading, km")),
			mcp.WithString("type", mcp.Description("fuel, maintenance, insurance, tax, other (default: other)")),
			mcp.WithNumber("recurring_interval", mcp.Description("Repeat every N days")),
			mcp.WithNumber("recurring_mileage", mcp.Description("Repeat every N km")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Mark a reminder as completed; recurring reminders get their next occurrence"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleCompleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reopen_reminder",
			mcp.WithDescription("Mark a completed reminder as not completed"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleReopenReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)
}

func (s *Server) handleListVehicles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Vehicles(ctx, s.ownerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list vehicles: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No vehicles found."), nil
	}
	return jsonResult(list)
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vehicleID := int64(req.GetFloat("vehicle_id", 0))

	entries, err := s.svc.List(ctx, s.ownerID, vehicleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	out := make([]listedReminder, len(entries))
	for i, e := range entries {
		out[i] = listedReminder{Reminder: e.Reminder}
		if e.Err != nil {
			out[i].Error = e.Err.Error()
		} else {
			out[i].Status = e.Status
		}
	}
	return jsonResult(out)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vehicleID := req.GetFloat("vehicle_id", -1)
	if vehicleID <= 0 || vehicleID != math.Trunc(vehicleID) {
		return mcp.NewToolResultError("vehicle_id is required and must be a positive whole number"), nil
	}
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	r := models.Reminder{
		VehicleID:   int64(vehicleID),
		OwnerID:     s.ownerID,
		Title:       title,
		Description: req.GetString("description", ""),
		DueDate:     req.GetString("due_date", ""),
		Type:        models.ReminderType(req.GetString("type", string(models.TypeOther))),
	}
	for key, dst := range map[string]**int{
		"due_mileage":        &r.DueMileage,
		"recurring_interval": &r.RecurringInterval,
		"recurring_mileage":  &r.RecurringMileage,
	} {
		v, err := optionalInt(req, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*dst = v
	}

	added, err := s.svc.Create(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}
	return jsonResult(added)
}

func (s *Server) handleCompleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}

	next, err := s.svc.SetComplete(ctx, s.ownerID, id, true)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}
	if next == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %d marked as completed.", id)), nil
	}
	return jsonResult(map[string]any{"completed": id, "next": next})
}

func (s *Server) handleReopenReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}

	if _, err := s.svc.SetComplete(ctx, s.ownerID, id, false); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reopen reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %d reopened.", id)), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(req)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.svc.Delete(ctx, s.ownerID, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %d deleted.", id)), nil
}

func requireID(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	idFloat := req.GetFloat("id", -1)
	if idFloat <= 0 || idFloat != math.Trunc(idFloat) {
		return 0, mcp.NewToolResultError("id is required and must be a positive whole number")
	}
	return int64(idFloat), nil
}

// optionalInt отличает отсутствующий аргумент от нуля: ноль передаётся
// дальше и отклоняется валидацией. Дробные значения не округляются.
func optionalInt(req mcp.CallToolRequest, key string) (*int, error) {
	const missing = -1 << 53
	v := req.GetFloat(key, missing)
	if v == missing {
		return nil, nil
	}
	if v != math.Trunc(v) {
		return nil, fmt.Errorf("%s must be a whole number, got %v", key, v)
	}
	n := int(v)
	return &n, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}
