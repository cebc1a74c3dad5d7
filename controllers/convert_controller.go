package controllers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/convgate/convgate/config"
	"github.com/convgate/convgate/converters"
	"github.com/convgate/convgate/models"
	"github.com/convgate/convgate/storage"
	"github.com/convgate/convgate/utils"
	"github.com/convgate/convgate/workers"
)

// ConvertController owns the conversion HTTP surface. All collaborators are
// injected at construction; there is no package-level state.
type ConvertController struct {
	cfg     config.AppConfig
	store   *storage.TempStore
	tracker *workers.Tracker
	runner  *workers.Runner
}

func NewConvertController(cfg config.AppConfig, store *storage.TempStore, tracker *workers.Tracker, runner *workers.Runner) *ConvertController {
	return &ConvertController{cfg: cfg, store: store, tracker: tracker, runner: runner}
}

// Convert handles POST /api/convert: ingest the upload, classify the pairing,
// create a job, and hand it to the worker pool. The handler returns as soon
// as the file is on disk; the conversion itself runs in the background.
func (c *ConvertController) Convert(ctx *gin.Context) {
	// Accept common field name 'file' or fallback to 'f'
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		file, header, err = ctx.Request.FormFile("f")
		if err != nil {
			utils.Fail(ctx, http.StatusBadRequest, models.ErrNoFile.Error())
			return
		}
	}
	defer file.Close()

	target := strings.ToLower(strings.TrimSpace(ctx.PostForm("target")))
	if target == "" {
		utils.Fail(ctx, http.StatusBadRequest, "missing target format")
		return
	}
	hint := ctx.PostForm("category")

	inputPath, ext, err := storage.Ingest(file, header.Filename, c.cfg.MaxUploadBytes(), c.store)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPayloadTooLarge):
			utils.Fail(ctx, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, models.ErrNoFile), errors.Is(err, models.ErrMissingExtension):
			utils.Fail(ctx, http.StatusBadRequest, err.Error())
		default:
			utils.Sugar.Errorf("upload ingest failed: %v", err)
			utils.Fail(ctx, http.StatusInternalServerError, "failed to store upload")
		}
		return
	}

	cat, err := converters.Classify(models.ConversionRequest{
		SourceExt:    ext,
		Target:       target,
		CategoryHint: hint,
	})
	if err != nil {
		// The upload is useless once rejected; do not wait for the sweep.
		_ = os.Remove(inputPath)
		utils.Fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := c.tracker.Create()
	if err != nil {
		_ = os.Remove(inputPath)
		utils.Sugar.Errorf("job create failed: %v", err)
		utils.Fail(ctx, http.StatusInternalServerError, "failed to create job")
		return
	}

	if err := c.runner.Launch(jobID, cat, inputPath, target); err != nil {
		utils.Fail(ctx, http.StatusServiceUnavailable, err.Error())
		return
	}

	utils.Sugar.Infow("conversion admitted",
		"job_id", jobID, "category", cat, "source", ext, "target", target)
	utils.JSON(ctx, http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": "processing",
	})
}

// Status handles GET /api/status/:id for job polling.
func (c *ConvertController) Status(ctx *gin.Context) {
	view, err := c.tracker.View(ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, http.StatusNotFound, models.ErrUnknownJob.Error())
		return
	}

	resp := gin.H{
		"status":  view.Status,
		"percent": view.Percent,
		"message": view.Message,
	}
	if view.Status == models.JobDone && view.ResultFile != "" {
		resp["download"] = "/download/" + view.ResultFile
		resp["filename"] = view.ResultFile
	}
	if view.Status == models.JobError {
		resp["error"] = view.ErrorDetail
	}
	utils.JSON(ctx, http.StatusOK, resp)
}

// Download handles GET /download/:name, streaming a scratch file as an
// attachment. Expired or unknown names answer 404.
func (c *ConvertController) Download(ctx *gin.Context) {
	name := ctx.Param("name")
	path, ok := c.store.Resolve(name)
	if !ok {
		utils.Fail(ctx, http.StatusNotFound, "file not found or expired")
		return
	}
	ctx.FileAttachment(path, name)
}
