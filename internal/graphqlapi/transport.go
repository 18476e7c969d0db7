package graphqlapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
)

// request is the single JSON envelope every /graphql call sends: an
// operation name plus its arguments, dispatched below rather than parsed
// from a schema document (the spec's GraphQL schema boilerplate Non-goal).
type request struct {
	Operation string          `json:"operation"`
	Variables json.RawMessage `json:"variables"`
}

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Handler serves every query and mutation operation named in §6's GraphQL
// surface over a single POST /graphql endpoint.
func Handler(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.Wrap(apperrors.InvalidArgument, err, "decoding request"))
			return
		}
		data, err := dispatch(c.Request.Context(), r, req.Operation, req.Variables)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response{Data: data})
	}
}

func writeError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		appErr = apperrors.Wrap(apperrors.Internal, err, "internal error")
	}
	c.JSON(appErr.HTTPStatus(), response{Error: &errorResponse{Kind: string(appErr.Kind), Message: appErr.Message}})
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(apperrors.InvalidArgument, err, "decoding operation variables")
	}
	return nil
}

func dispatch(ctx context.Context, r *Resolver, operation string, vars json.RawMessage) (any, error) {
	switch operation {
	case "serverInfo":
		return r.ServerInfo(ctx)

	case "librarySection":
		var args struct {
			UUID string `json:"uuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.LibrarySection(ctx, args.UUID)

	case "librarySections":
		return r.LibrarySections(ctx)

	case "metadataItem":
		var args struct {
			UUID string `json:"uuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.MetadataItem(ctx, args.UUID)

	case "metadataItems":
		var args struct {
			Input MetadataItemsInput `json:"input"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.MetadataItems(ctx, args.Input)

	case "librarySectionChildren":
		var args struct {
			SectionUUID   string                `json:"sectionUuid"`
			MetadataTypes []catalog.MetadataType `json:"metadataTypes"`
			Skip          int                   `json:"skip"`
			Take          int                   `json:"take"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.LibrarySectionChildren(ctx, args.SectionUUID, args.MetadataTypes, args.Skip, args.Take)

	case "librarySectionLetterIndex":
		var args struct {
			SectionUUID   string                `json:"sectionUuid"`
			MetadataTypes []catalog.MetadataType `json:"metadataTypes"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.LetterIndex(ctx, args.SectionUUID, args.MetadataTypes)

	case "librarySectionAvailableRootItemTypes":
		var args struct {
			SectionUUID string `json:"sectionUuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.AvailableRootItemTypes(ctx, args.SectionUUID)

	case "librarySectionAvailableSortFields":
		var args struct {
			SectionUUID string `json:"sectionUuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.AvailableSortFields(ctx, args.SectionUUID)

	case "homeHubDefinitions":
		return r.HomeHubDefinitions(ctx)

	case "libraryDiscoverHubDefinitions":
		var args struct {
			SectionUUID string `json:"sectionUuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.LibraryDiscoverHubDefinitions(ctx, args.SectionUUID)

	case "itemDetailHubDefinitions":
		var args struct {
			MetadataType catalog.MetadataType `json:"metadataType"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.ItemDetailHubDefinitions(ctx, args.MetadataType)

	case "hubItems":
		var args struct {
			Input HubItemsInput `json:"input"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.HubItems(ctx, args.Input)

	case "hubPeople":
		var args struct {
			HubType        hub.Type `json:"hubType"`
			MetadataItemID uint     `json:"metadataItemId"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.HubPeople(ctx, args.HubType, args.MetadataItemID)

	case "search":
		var args struct {
			Query string      `json:"query"`
			Pivot SearchPivot `json:"pivot"`
			Limit int         `json:"limit"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.Search(ctx, args.Query, args.Pivot, args.Limit)

	case "fileSystemRoots":
		return r.FileSystemRoots(ctx)

	case "browseDirectory":
		var args struct {
			Path string `json:"path"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.BrowseDirectory(ctx, args.Path)

	case "activeJobNotifications":
		return r.ActiveJobNotifications(ctx)

	case "startLibraryScan":
		var args struct {
			SectionUUID string `json:"sectionUuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.StartLibraryScan(ctx, args.SectionUUID)

	case "refreshLibraryMetadata":
		var args struct {
			SectionUUID string `json:"sectionUuid"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.RefreshLibraryMetadata(ctx, args.SectionUUID)

	case "refreshItemMetadata":
		var args struct {
			ItemID          uint64 `json:"itemId"`
			IncludeChildren bool   `json:"includeChildren"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.RefreshItemMetadata(ctx, args.ItemID, args.IncludeChildren)

	case "analyzeItem":
		var args struct {
			ItemID uint64 `json:"itemId"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.AnalyzeItem(ctx, args.ItemID)

	case "updateMetadataItem":
		var args struct {
			ItemID uint64            `json:"itemId"`
			Patch  MetadataItemPatch `json:"patch"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.UpdateMetadataItem(ctx, args.ItemID, args.Patch)

	case "lockMetadataFields":
		var args struct {
			ItemID uint64   `json:"itemId"`
			Fields []string `json:"fields"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.LockMetadataFields(ctx, args.ItemID, args.Fields)

	case "unlockMetadataFields":
		var args struct {
			ItemID uint64   `json:"itemId"`
			Fields []string `json:"fields"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.UnlockMetadataFields(ctx, args.ItemID, args.Fields)

	case "promoteItem":
		var args struct {
			ItemID uint64 `json:"itemId"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.PromoteItem(ctx, args.ItemID)

	case "unpromoteItem":
		var args struct {
			ItemID uint64 `json:"itemId"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.UnpromoteItem(ctx, args.ItemID)

	case "updateServerSettings":
		var args struct {
			Patch map[string]string `json:"patch"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.UpdateServerSettings(ctx, args.Patch)

	case "updateHubConfiguration":
		var args struct {
			Config hub.Configuration `json:"config"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return r.UpdateHubConfiguration(ctx, args.Config)

	case "updateAdminDetailFieldConfiguration":
		var args struct {
			Config AdminDetailFieldConfiguration `json:"config"`
		}
		if err := decode(vars, &args); err != nil {
			return nil, err
		}
		return nil, r.UpdateAdminDetailFieldConfiguration(ctx, args.Config)

	default:
		return nil, apperrors.Newf(apperrors.InvalidArgument, "unknown operation %q", operation)
	}
}

// SubscriptionHandler serves onMetadataItemUpdated and onJobNotification as
// server-sent-event streams, selected by the "operation" query parameter
// (gin's native SSE support, the same c.Stream loop gin's own examples use).
func SubscriptionHandler(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Query("operation") {
		case "onMetadataItemUpdated":
			streamItemUpdates(c, r)
		case "onJobNotification":
			streamJobNotifications(c, r)
		default:
			writeError(c, apperrors.Newf(apperrors.InvalidArgument, "unknown subscription %q", c.Query("operation")))
		}
	}
}

func streamItemUpdates(c *gin.Context, r *Resolver) {
	ch, unsub := r.OnMetadataItemUpdated(c.Request.Context())
	defer unsub()
	c.Stream(func(w io.Writer) bool {
		select {
		case item, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("metadataItemUpdated", item)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func streamJobNotifications(c *gin.Context, r *Resolver) {
	userID := c.Query("userId")
	ch, unsub, err := r.OnJobNotification(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer unsub()
	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("jobNotification", entry)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
