// jobs.go
//
// GO4IT builder: background generation, preview and deployment service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of go4it-builder.
// go4it-builder is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// go4it-builder is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with go4it-builder.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"github.com/go4it/builder/internal/builder"
	"github.com/go4it/builder/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// JobHandler exposes the background job endpoints called by the web app
type JobHandler struct {
	Builder *builder.Builder
}

// CancelRequest identifies the generation to cancel
type CancelRequest struct {
	GenerationID string `json:"generationId"`
}

// CancelResponse reports whether a running job was found
type CancelResponse struct {
	Status       string `json:"status" example:"cancelled"`
	GenerationID string `json:"generationId"`
}

// WorkspaceDeleteResponse reports whether a workspace was removed
type WorkspaceDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	ActiveJobs int    `json:"activeJobs"`
	Uptime     int64  `json:"uptime"`
}

// Generate handles POST /generate
// @Summary Start a generation
// @Description Claims a PENDING or GENERATING generation and runs the coding agent in the background
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body builder.GenerateRequest true "Generation request"
// @Success 202 {object} utils.AcceptedResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /generate [post]
func (h *JobHandler) Generate(c *fiber.Ctx) error {
	var req builder.GenerateRequest
	if err := parseBody(c, &req, "generate"); err != nil {
		return respondError(c, err, "generate")
	}

	if err := h.Builder.StartGeneration(c.UserContext(), req); err != nil {
		return respondError(c, err, "generate")
	}

	return utils.AcceptedResponse(c, "generationId", req.GenerationID)
}

// Iterate handles POST /iterate
// @Summary Start an iteration
// @Description Runs a follow-up prompt against an existing generation's workspace
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body builder.IterateRequest true "Iteration request"
// @Success 202 {object} utils.AcceptedResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /iterate [post]
func (h *JobHandler) Iterate(c *fiber.Ctx) error {
	var req builder.IterateRequest
	if err := parseBody(c, &req, "iterate"); err != nil {
		return respondError(c, err, "iterate")
	}

	if err := h.Builder.StartIteration(c.UserContext(), req); err != nil {
		return respondError(c, err, "iterate")
	}

	return utils.AcceptedResponse(c, "generationId", req.GenerationID)
}

// Cancel handles POST /cancel
// @Summary Cancel a running job
// @Description Terminates the process running for a generation. Repeated calls report not_found.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body CancelRequest true "Cancel request"
// @Success 200 {object} CancelResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /cancel [post]
func (h *JobHandler) Cancel(c *fiber.Ctx) error {
	var req CancelRequest
	if err := parseBody(c, &req, "cancel"); err != nil {
		return respondError(c, err, "cancel")
	}
	if req.GenerationID == "" {
		return utils.BadRequestResponse(c, "generationId is required", "cancel")
	}

	status := "not_found"
	if h.Builder.Cancel(req.GenerationID) {
		status = "cancelled"
	}

	return c.JSON(CancelResponse{Status: status, GenerationID: req.GenerationID})
}

// DeleteWorkspace handles DELETE /workspace/:id
// @Summary Delete a workspace
// @Tags Jobs
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} WorkspaceDeleteResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /workspace/{id} [delete]
func (h *JobHandler) DeleteWorkspace(c *fiber.Ctx) error {
	deleted, err := h.Builder.CleanupWorkspace(c.Params("id"))
	if err != nil {
		return respondError(c, err, "workspace")
	}
	return c.JSON(WorkspaceDeleteResponse{Deleted: deleted})
}

// Deploy handles POST /deploy
// @Summary Deploy an organization app
// @Description Deploys the app's source to Fly, reusing an existing Fly app when possible
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body builder.DeployRequest true "Deploy request"
// @Success 202 {object} utils.AcceptedResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /deploy [post]
func (h *JobHandler) Deploy(c *fiber.Ctx) error {
	var req builder.DeployRequest
	if err := parseBody(c, &req, "deploy"); err != nil {
		return respondError(c, err, "deploy")
	}

	if err := h.Builder.StartDeploy(c.UserContext(), req); err != nil {
		return respondError(c, err, "deploy")
	}

	return utils.AcceptedResponse(c, "orgAppId", req.OrgAppID)
}

// Health handles GET /health
// @Summary Liveness and load
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *JobHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:     "ok",
		ActiveJobs: h.Builder.ActiveJobs(),
		Uptime:     int64(h.Builder.Uptime().Seconds()),
	})
}
