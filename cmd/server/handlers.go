package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Skufu/symptomdesk/internal/assistant"
	"github.com/Skufu/symptomdesk/internal/geo"
	"github.com/Skufu/symptomdesk/internal/report"
	"github.com/Skufu/symptomdesk/internal/store"
)

const (
	defaultRadiusKm = 5
	minRadiusKm     = 1
	maxRadiusKm     = 20
	facilityLimit   = 5
)

const (
	msgAddressNotFound  = "Unable to find coordinates for the given address. Please try again."
	msgLocationNotFound = "Unable to find an address for the given coordinates."
	msgUpstream         = "A required service is unavailable. Please try again later."
	msgPDFFailed        = "Unable to generate the PDF report."
)

// Analyzer answers a symptom description with a Conditions/Advice report.
type Analyzer interface {
	Analyze(ctx context.Context, symptoms string) (string, error)
}

// Locator geocodes addresses and searches for facilities.
type Locator interface {
	Geocode(ctx context.Context, address string) (geo.Location, error)
	Reverse(ctx context.Context, p geo.Point) (geo.Location, error)
	Nearby(ctx context.Context, p geo.Point, category string, radiusMeters int) ([]geo.Place, error)
}

// App holds the collaborators the HTTP handlers use.
type App struct {
	Analyzer   Analyzer
	Locator    Locator
	Store      store.Store
	ReportOpts report.Options
	Timeout    time.Duration
	Logger     *zap.Logger
}

type analyzeRequest struct {
	Symptoms string `json:"symptoms"`
	Address  string `json:"address"`
	RadiusKm int    `json:"radiusKm"`
}

type analyzeResponse struct {
	ReportID   string         `json:"reportId"`
	Report     string         `json:"report"`
	Location   geo.Location   `json:"location"`
	RadiusKm   int            `json:"radiusKm"`
	Hospitals  []geo.Facility `json:"hospitals"`
	Pharmacies []geo.Facility `json:"pharmacies"`
	Markers    []geo.Marker   `json:"markers"`
}

// stageError records which upstream step failed.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (a *App) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Symptoms = strings.TrimSpace(req.Symptoms)
	req.Address = strings.TrimSpace(req.Address)
	if req.RadiusKm == 0 {
		req.RadiusKm = defaultRadiusKm
	}

	var problems []string
	if req.Symptoms == "" {
		problems = append(problems, "symptoms are required")
	}
	if req.Address == "" {
		problems = append(problems, "address is required")
	}
	if req.RadiusKm < minRadiusKm || req.RadiusKm > maxRadiusKm {
		problems = append(problems, "radiusKm must be between 1 and 20")
	}
	if len(problems) > 0 {
		validationFailed(c, problems)
		return
	}
	if a.Analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "symptom analysis is not configured"})
		return
	}

	ctx, cancel := a.upstreamContext(c)
	defer cancel()

	var (
		text                  string
		loc                   geo.Location
		hospitals, pharmacies []geo.Place
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := a.Analyzer.Analyze(gctx, req.Symptoms)
		if err != nil {
			return &stageError{stage: "assistant", err: err}
		}
		text = out
		return nil
	})
	g.Go(func() error {
		found, err := a.Locator.Geocode(gctx, req.Address)
		if err != nil {
			return &stageError{stage: "geocode", err: err}
		}
		loc = found

		search, sctx := errgroup.WithContext(gctx)
		search.Go(func() error {
			places, err := a.Locator.Nearby(sctx, loc.Point, geo.CategoryHospital, req.RadiusKm*1000)
			if err != nil {
				return &stageError{stage: "hospital search", err: err}
			}
			hospitals = places
			return nil
		})
		search.Go(func() error {
			places, err := a.Locator.Nearby(sctx, loc.Point, geo.CategoryPharmacy, req.RadiusKm*1000)
			if err != nil {
				return &stageError{stage: "pharmacy search", err: err}
			}
			pharmacies = places
			return nil
		})
		return search.Wait()
	})
	if err := g.Wait(); err != nil {
		a.upstreamFailed(c, err)
		return
	}

	rec := store.Record{Symptoms: req.Symptoms, Address: req.Address, Report: text}
	if err := a.Store.Save(c.Request.Context(), &rec); err != nil {
		a.Logger.Error("save report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save report"})
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{
		ReportID:   rec.ID,
		Report:     text,
		Location:   loc,
		RadiusKm:   req.RadiusKm,
		Hospitals:  geo.Nearest(loc.Point, geo.CategoryHospital, hospitals, facilityLimit),
		Pharmacies: geo.Nearest(loc.Point, geo.CategoryPharmacy, pharmacies, facilityLimit),
		Markers:    geo.Markers(loc.Point, hospitals, pharmacies),
	})
}

type renderRequest struct {
	Report string `json:"report"`
}

func (a *App) handleRenderPDF(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	a.sendPDF(c, req.Report)
}

func (a *App) handleGetReport(c *gin.Context) {
	rec, ok := a.lookupReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *App) handleReportPDF(c *gin.Context) {
	rec, ok := a.lookupReport(c)
	if !ok {
		return
	}
	a.sendPDF(c, rec.Report)
}

func (a *App) handleReverseGeocode(c *gin.Context) {
	p, ok := pointFromQuery(c)
	if !ok {
		return
	}

	ctx, cancel := a.upstreamContext(c)
	defer cancel()

	loc, err := a.Locator.Reverse(ctx, p)
	if err != nil {
		a.upstreamFailed(c, &stageError{stage: "reverse geocode", err: err})
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (a *App) handleFacilities(c *gin.Context) {
	p, ok := pointFromQuery(c)
	if !ok {
		return
	}
	category := c.DefaultQuery("category", geo.CategoryHospital)
	if category != geo.CategoryHospital && category != geo.CategoryPharmacy {
		validationFailed(c, []string{"category must be hospital or pharmacy"})
		return
	}
	radius, err := strconv.Atoi(c.DefaultQuery("radiusKm", strconv.Itoa(defaultRadiusKm)))
	if err != nil || radius < minRadiusKm || radius > maxRadiusKm {
		validationFailed(c, []string{"radiusKm must be between 1 and 20"})
		return
	}

	ctx, cancel := a.upstreamContext(c)
	defer cancel()

	places, err := a.Locator.Nearby(ctx, p, category, radius*1000)
	if err != nil {
		a.upstreamFailed(c, &stageError{stage: category + " search", err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":   category,
		"radiusKm":   radius,
		"facilities": geo.Nearest(p, category, places, 0),
	})
}

func (a *App) lookupReport(c *gin.Context) (store.Record, bool) {
	rec, err := a.Store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return store.Record{}, false
	}
	if err != nil {
		a.Logger.Error("load report", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load report"})
		return store.Record{}, false
	}
	return rec, true
}

func (a *App) sendPDF(c *gin.Context, text string) {
	data, err := report.Render(text, a.ReportOpts)
	if err != nil {
		a.Logger.Error("render report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgPDFFailed})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Data(http.StatusOK, report.MIMEType, data)
}

func (a *App) upstreamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if a.Timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), a.Timeout)
}

func (a *App) upstreamFailed(c *gin.Context, err error) {
	stage := "upstream"
	var se *stageError
	if errors.As(err, &se) {
		stage = se.stage
	}
	a.Logger.Error("upstream call failed", zap.String("stage", stage), zap.Error(err))

	switch {
	case errors.Is(err, geo.ErrNotFound) && stage == "reverse geocode":
		c.JSON(http.StatusNotFound, gin.H{"error": msgLocationNotFound})
	case errors.Is(err, geo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgAddressNotFound})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": msgUpstream, "stage": stage})
	case stage == "assistant":
		c.JSON(http.StatusBadGateway, gin.H{"error": assistant.FallbackMessage, "stage": stage})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": msgUpstream, "stage": stage})
	}
}

func pointFromQuery(c *gin.Context) (geo.Point, bool) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	p := geo.Point{Lat: lat, Lon: lon}
	if latErr != nil || lonErr != nil || !p.Valid() {
		validationFailed(c, []string{"lat and lon must be valid coordinates"})
		return geo.Point{}, false
	}
	return p, true
}

func validationFailed(c *gin.Context, problems []string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "validation_failed",
		"details": problems,
	})
}
