package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/megabuster785/collab-whiteboard/internal/service"
)

// RoomHandler serves the read-only room endpoints used by the lobby page.
type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// GetRoom returns a summary of one room: privacy flag, member count and
// action count. It never creates rooms.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")

	info, err := h.roomService.Info(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room info")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, info)
}
