package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"squad-management-api/internal/database"
	"squad-management-api/internal/models"
)

// RequireSquadAccess checks if the user is a member of the squad
func RequireSquadAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		squadIDStr := c.Param("id")
		squadID, err := strconv.ParseUint(squadIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid squad ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var squad models.Squad
		if err := database.GetDB().First(&squad, squadID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Squad not found",
			})
			c.Abort()
			return
		}

		// Check if user is a member
		var member models.SquadMember
		err = database.GetDB().Where("squad_id = ? AND user_id = ?", squadID, userID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking squad existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Squad not found",
			})
			c.Abort()
			return
		}

		// Store squad and membership in context
		c.Set("squad", squad)
		c.Set("squad_member", member)
		c.Next()
	}
}

// RequireSquadCaptain checks if the user is the current captain of the squad
func RequireSquadCaptain() gin.HandlerFunc {
	return func(c *gin.Context) {
		squadInterface, exists := c.Get("squad")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Squad access required",
			})
			c.Abort()
			return
		}

		squad, ok := squadInterface.(models.Squad)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid squad data",
			})
			c.Abort()
			return
		}

		userID, _ := GetUserID(c)
		if squad.CaptainID != userID {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the squad captain can perform this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
