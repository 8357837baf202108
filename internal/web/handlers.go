package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bosunworks/bosun/internal/taskgraph"
)

// Web handlers

func (s *Server) handleBoard(c *gin.Context) {
	board, err := s.tasks.ListAll()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load board: %v", err)
		return
	}

	title := "Bosun Board"
	if s.project != "" {
		title = "Bosun Board: " + s.project
	}

	c.HTML(http.StatusOK, "board.html", gin.H{
		"title": title,
		"board": board,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"project": s.project,
	})
}

// API handlers

func (s *Server) handleAPIBoard(c *gin.Context) {
	board, err := s.tasks.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    board,
	})
}

func (s *Server) handleAPITask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid task id",
		})
		return
	}

	task, err := s.tasks.Get(id)
	if err != nil {
		if taskgraph.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}
