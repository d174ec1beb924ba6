package rag

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"orgdesk/internal/directory"
	"orgdesk/pkg/auth"
	"orgdesk/pkg/logging"
)

// AdminAPI exposes indexing management endpoints. Chunk creation is driven
// from here; the conversational surface only reads the index.
type AdminAPI struct {
	store    *Store
	indexer  *Indexer
	policies *directory.Store
	logger   logging.Logger
}

type indexRequest struct {
	PolicyID string `json:"policy_id"`
}

type chunkResponse struct {
	ID             string `json:"id"`
	PolicyID       string `json:"policy_id"`
	OrganizationID string `json:"organization_id"`
	PolicyName     string `json:"policy_name"`
	DocumentName   string `json:"document_name,omitempty"`
	FilePath       string `json:"file_path,omitempty"`
	ChunkIndex     int    `json:"chunk_index"`
	Text           string `json:"text"`
	Created        string `json:"created,omitempty"`
}

func NewAdminAPI(store *Store, indexer *Indexer, policies *directory.Store, logger logging.Logger) (*AdminAPI, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if policies == nil {
		return nil, errors.New("policy store is required")
	}
	return &AdminAPI{
		store:    store,
		indexer:  indexer,
		policies: policies,
		logger:   logger,
	}, nil
}

func (a *AdminAPI) RegisterRoutes(router *gin.Engine, jwtSecret []byte) {
	router.GET("/ai/policy-embeddings", a.handleListChunks)

	admin := router.Group("/ai/policies")
	admin.Use(auth.JWTAuthMiddleware(jwtSecret))
	admin.Use(adminOnlyMiddleware())

	admin.POST("/index", a.handleIndexPolicy)
	admin.DELETE("/:id/index", a.handleRemovePolicy)
}

func (a *AdminAPI) handleIndexPolicy(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.PolicyID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "policy_id is required"})
		return
	}

	policy, err := a.policies.GetPolicyByID(c.Request.Context(), req.PolicyID)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load policy for indexing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load policy"})
		return
	}
	if policy == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
		return
	}
	if policy.FilePath == "" {
		c.JSON(http.StatusOK, IndexResult{Status: StatusSkipped, Reason: ReasonNoTextExtracted})
		return
	}

	result := a.indexer.IndexPolicyDocument(c.Request.Context(), PolicyDocument{
		PolicyID:       policy.ID,
		OrganizationID: policy.OrganizationID,
		PolicyName:     policy.Name,
		Description:    policy.Description,
		DocumentName:   policy.DocumentName,
		FilePath:       policy.FilePath,
	})
	c.JSON(http.StatusOK, result)
}

func (a *AdminAPI) handleRemovePolicy(c *gin.Context) {
	policyID := strings.TrimSpace(c.Param("id"))
	if policyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "policy id is required"})
		return
	}
	result := a.indexer.RemovePolicy(c.Request.Context(), policyID)
	c.JSON(http.StatusOK, result)
}

func (a *AdminAPI) handleListChunks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	chunks, err := a.store.List(
		c.Request.Context(),
		strings.TrimSpace(c.Query("policy_id")),
		strings.TrimSpace(c.Query("organization_id")),
		limit,
		offset,
	)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to list policy chunks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list policy embeddings"})
		return
	}

	response := make([]chunkResponse, 0, len(chunks))
	for _, chunk := range chunks {
		item := chunkResponse{
			ID:             chunk.ID,
			PolicyID:       chunk.PolicyID,
			OrganizationID: chunk.OrganizationID,
			PolicyName:     chunk.PolicyName,
			DocumentName:   chunk.DocumentName,
			FilePath:       chunk.FilePath,
			ChunkIndex:     chunk.Index,
			Text:           chunk.Text,
		}
		if !chunk.Created.IsZero() {
			item.Created = chunk.Created.UTC().Format(time.RFC3339)
		}
		response = append(response, item)
	}
	c.JSON(http.StatusOK, gin.H{
		"items":  response,
		"total":  len(response),
		"limit":  limit,
		"offset": offset,
	})
}

func adminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetString(auth.CtxRole), "admin") {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
