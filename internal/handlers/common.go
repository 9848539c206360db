// common.go
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
	"errors"
	"log"

	"github.com/go4it/builder/internal/builder"
	"github.com/go4it/builder/internal/types"
	"github.com/go4it/builder/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error onto the JSON error envelope
func respondError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return utils.BadRequestResponse(c, err.Error(), errorType)
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, types.ErrConflict):
		return utils.ConflictResponse(c, err.Error(), errorType)
	case errors.Is(err, builder.ErrDeployDisabled):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusServiceUnavailable, errorType)
	}

	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		return utils.ErrorResponse(c, customErr.Message, customErr.Code, customErr.Type)
	}

	log.Printf("%s: %v", errorType, err)
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// parseBody decodes a JSON request body, reporting malformed input as a 400
func parseBody(c *fiber.Ctx, out interface{}, errorType string) error {
	if err := c.BodyParser(out); err != nil {
		return &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body: " + err.Error(),
			Type:    errorType,
		}
	}
	return nil
}
