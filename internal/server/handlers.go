package server

import (
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/omr-match-mcp/internal/detection"
	"github.com/ironsheep/omr-match-mcp/internal/distance"
	"github.com/ironsheep/omr-match-mcp/internal/imaging"
	"github.com/ironsheep/omr-match-mcp/internal/pixel"
	"github.com/ironsheep/omr-match-mcp/internal/template"
	"github.com/ironsheep/omr-match-mcp/internal/watershed"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "omr_match_shape").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool done")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads, crops and binarizes the page as needed
//  4. Calls the appropriate distance/template/detection/watershed function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_unload":
		return s.handleImageUnload(args)

	// Symbol Analysis
	case "omr_distance_transform":
		return s.handleDistanceTransform(args)
	case "omr_template_info":
		return s.handleTemplateInfo(args)
	case "omr_match_shape":
		return s.handleMatchShape(args)
	case "omr_staff_scale":
		return s.handleStaffScale(args)
	case "omr_watershed":
		return s.handleWatershed(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageUnloadResult struct {
	Path          string `json:"path"`
	ImageEvicted  bool   `json:"image_evicted"`
	TablesEvicted int    `json:"tables_evicted"`
}

// handleImageUnload drops a page and the distance tables computed on it, so
// that the next call reads the file again.
func (s *Server) handleImageUnload(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &imageUnloadResult{
		Path:          a.Path,
		ImageEvicted:  s.cache.Evict(a.Path),
		TablesEvicted: s.tables.evictPath(a.Path),
	}, nil
}

// === Distance Transform ===

type distanceTransformArgs struct {
	pageArgs
	Kernel        string  `json:"kernel"`
	IncludeImage  bool    `json:"include_image"`
	IncludeBinary bool    `json:"include_binary"`
	Scale         float64 `json:"scale"`
}

type distanceTransformResult struct {
	Width             int                  `json:"width"`
	Height            int                  `json:"height"`
	Region            *imaging.Region      `json:"region,omitempty"`
	Kernel            string               `json:"kernel"`
	Normalizer        int                  `json:"normalizer"`
	ForegroundPixels  int                  `json:"foreground_pixels"`
	UnreachablePixels int                  `json:"unreachable_pixels"`
	MaxDistance       float64              `json:"max_distance"`
	Image             *imaging.ImageResult `json:"image,omitempty"`
	Binary            *imaging.ImageResult `json:"binary,omitempty"`
}

func (s *Server) handleDistanceTransform(args json.RawMessage) (interface{}, error) {
	var a distanceTransformArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Kernel == "" {
		a.Kernel = s.cfg.Kernel
	}

	p, err := s.loadPage(a.pageArgs)
	if err != nil {
		return nil, err
	}
	dt, err := s.distanceTable(p, a.Kernel)
	if err != nil {
		return nil, err
	}

	result := &distanceTransformResult{
		Width:      dt.Width(),
		Height:     dt.Height(),
		Region:     p.region,
		Kernel:     a.Kernel,
		Normalizer: dt.Normalizer(),
	}
	field := distance.FieldOf(dt)
	for y := 0; y < field.Height(); y++ {
		for x := 0; x < field.Width(); x++ {
			switch {
			case !field.IsReachable(x, y):
				result.UnreachablePixels++
			case field.Value(x, y) == 0:
				result.ForegroundPixels++
			}
		}
	}
	result.MaxDistance, _ = field.Max()

	if a.IncludeImage {
		if result.Image, err = imaging.EncodePNG(imaging.DistanceHeatmap(field), a.Scale); err != nil {
			return nil, err
		}
	}
	if a.IncludeBinary {
		if result.Binary, err = imaging.EncodePNG(pixel.Binarize(p.filter), a.Scale); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Templates ===

type templateInfoArgs struct {
	Shape        string `json:"shape"`
	Interline    int    `json:"interline"`
	Lines        string `json:"lines"`
	Stem         string `json:"stem"`
	IncludeDump  bool   `json:"include_dump"`
	IncludeImage bool   `json:"include_image"`
}

type anchorInfo struct {
	Name string `json:"name"`
	DX   int    `json:"dx"`
	DY   int    `json:"dy"`
}

type variantInfo struct {
	Lines            string               `json:"lines"`
	Stem             string               `json:"stem"`
	ForegroundPoints int                  `json:"foreground_points"`
	HolePoints       int                  `json:"hole_points"`
	Symbol           imaging.Region       `json:"symbol"`
	Anchors          []anchorInfo         `json:"anchors"`
	Dump             string               `json:"dump,omitempty"`
	Image            *imaging.ImageResult `json:"image,omitempty"`
}

type templateInfoResult struct {
	Shape     string        `json:"shape"`
	Interline int           `json:"interline"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Variants  []variantInfo `json:"variants"`
}

// decoratedScale magnifies template images returned by omr_template_info.
const decoratedScale = 8

func (s *Server) handleTemplateInfo(args json.RawMessage) (interface{}, error) {
	var a templateInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	shape, err := template.ParseShape(a.Shape)
	if err != nil {
		return nil, err
	}
	filter, err := parseKeyFilter(a.Lines, a.Stem)
	if err != nil {
		return nil, err
	}
	desc, err := s.factory.Descriptor(shape, a.Interline)
	if err != nil {
		return nil, err
	}

	variants := desc.Select(filter)
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %v", template.ErrNoVariant, shape)
	}

	result := &templateInfoResult{
		Shape:     shape.String(),
		Interline: desc.Interline(),
		Width:     desc.Width(),
		Height:    desc.Height(),
		Variants:  make([]variantInfo, 0, len(variants)),
	}
	for _, t := range variants {
		sym := t.Symbol()
		info := variantInfo{
			Lines:            t.Key().Lines.String(),
			Stem:             t.Key().Stem.String(),
			ForegroundPoints: t.ForegroundCount(),
			HolePoints:       t.HoleCount(),
			Symbol:           imaging.Region{X1: sym.Min.X, Y1: sym.Min.Y, X2: sym.Max.X, Y2: sym.Max.Y},
		}
		for _, anchor := range t.Anchors() {
			off, err := t.Offset(anchor)
			if err != nil {
				return nil, err
			}
			info.Anchors = append(info.Anchors, anchorInfo{Name: anchor.String(), DX: off.X, DY: off.Y})
		}
		if a.IncludeDump {
			info.Dump = t.Dump()
		}
		if a.IncludeImage {
			if info.Image, err = imaging.EncodePNG(t.DecoratedImage(decoratedScale), 1); err != nil {
				return nil, err
			}
		}
		result.Variants = append(result.Variants, info)
	}
	return result, nil
}

func parseKeyFilter(lines, stem string) (template.KeyFilter, error) {
	l, err := template.ParseLines(lines)
	if err != nil {
		return nil, err
	}
	st, err := template.ParseStemSide(stem)
	if err != nil {
		return nil, err
	}
	return template.Match(l, st), nil
}

// === Matching ===

// defaultMaxDistance is the default acceptance threshold of omr_match_shape,
// a mean squared distance in interline-independent pixel units.
const defaultMaxDistance = 0.5

type matchShapeArgs struct {
	pageArgs
	Shape        string  `json:"shape"`
	Interline    int     `json:"interline"`
	MaxDistance  float64 `json:"max_distance"`
	Kernel       string  `json:"kernel"`
	Lines        string  `json:"lines"`
	Stem         string  `json:"stem"`
	Limit        int     `json:"limit"`
	IncludeImage bool    `json:"include_image"`
	BoxColor     string  `json:"box_color"`
}

type matchShapeResult struct {
	Shape              string                `json:"shape"`
	Interline          int                   `json:"interline"`
	InterlineEstimated bool                  `json:"interline_estimated"`
	Kernel             string                `json:"kernel"`
	MaxDistance        float64               `json:"max_distance"`
	Region             *imaging.Region       `json:"region,omitempty"`
	Total              int                   `json:"total"`
	Candidates         []detection.Candidate `json:"candidates"`
	Image              *imaging.ImageResult  `json:"image,omitempty"`
}

func (s *Server) handleMatchShape(args json.RawMessage) (interface{}, error) {
	var a matchShapeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxDistance == 0 {
		a.MaxDistance = defaultMaxDistance
	}
	if a.Kernel == "" {
		a.Kernel = s.cfg.Kernel
	}
	if a.Limit <= 0 || a.Limit > s.cfg.MaxCandidates {
		a.Limit = s.cfg.MaxCandidates
	}
	if a.BoxColor == "" {
		a.BoxColor = "#FF0000"
	}

	shape, err := template.ParseShape(a.Shape)
	if err != nil {
		return nil, err
	}
	filter, err := parseKeyFilter(a.Lines, a.Stem)
	if err != nil {
		return nil, err
	}

	p, err := s.loadPage(a.pageArgs)
	if err != nil {
		return nil, err
	}

	result := &matchShapeResult{
		Shape:       shape.String(),
		Interline:   a.Interline,
		Kernel:      a.Kernel,
		MaxDistance: a.MaxDistance,
		Region:      p.region,
	}
	if result.Interline <= 0 {
		scale, err := detection.EstimateScale(p.filter)
		if err != nil {
			return nil, fmt.Errorf("interline not given: %w", err)
		}
		result.Interline = scale.Interline
		result.InterlineEstimated = true
	}

	desc, err := s.factory.Descriptor(shape, result.Interline)
	if err != nil {
		return nil, err
	}
	dt, err := s.distanceTable(p, a.Kernel)
	if err != nil {
		return nil, err
	}

	candidates, err := detection.SearchDescriptor(dt, desc, filter, a.MaxDistance)
	if err != nil {
		return nil, err
	}
	detection.SortCandidates(candidates)
	result.Total = len(candidates)
	if len(candidates) > a.Limit {
		candidates = candidates[:a.Limit]
	}

	var boxes []image.Rectangle
	for i := range candidates {
		c := &candidates[i]
		if a.IncludeImage {
			boxes = append(boxes, image.Rect(c.Bounds.X1, c.Bounds.Y1, c.Bounds.X2, c.Bounds.Y2))
		}
		c.X, c.Y = p.toPage(c.X, c.Y)
		c.Bounds.X1, c.Bounds.Y1 = p.toPage(c.Bounds.X1, c.Bounds.Y1)
		c.Bounds.X2, c.Bounds.Y2 = p.toPage(c.Bounds.X2, c.Bounds.Y2)
		c.Center.X, c.Center.Y = p.toPage(c.Center.X, c.Center.Y)
	}
	result.Candidates = candidates

	s.logger.Debug().
		Str("shape", result.Shape).
		Int("interline", result.Interline).
		Int("total", result.Total).
		Msg("shape search done")

	if a.IncludeImage {
		line, err := imaging.ParseColor(a.BoxColor)
		if err != nil {
			return nil, err
		}
		if result.Image, err = imaging.EncodePNG(imaging.DrawBoxes(p.img, boxes, line), 1); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Staff Scale ===

type staffScaleResult struct {
	detection.Scale
	Region *imaging.Region `json:"region,omitempty"`
}

func (s *Server) handleStaffScale(args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.loadPage(a)
	if err != nil {
		return nil, err
	}
	scale, err := detection.EstimateScale(p.filter)
	if err != nil {
		return nil, err
	}
	return &staffScaleResult{Scale: *scale, Region: p.region}, nil
}

// === Watershed ===

type watershedArgs struct {
	pageArgs
	BrightOnDark bool    `json:"bright_on_dark"`
	Step         int     `json:"step"`
	BlurRadius   float64 `json:"blur_radius"`
	IncludeImage bool    `json:"include_image"`
	LineColor    string  `json:"line_color"`
}

type watershedResult struct {
	Width          int                  `json:"width"`
	Height         int                  `json:"height"`
	Region         *imaging.Region      `json:"region,omitempty"`
	Step           int                  `json:"step"`
	Regions        int                  `json:"regions"`
	BoundaryPixels int                  `json:"boundary_pixels"`
	Image          *imaging.ImageResult `json:"image,omitempty"`
}

func (s *Server) handleWatershed(args json.RawMessage) (interface{}, error) {
	var a watershedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Step == 0 {
		a.Step = s.cfg.WatershedStep
	}
	if a.LineColor == "" {
		a.LineColor = "#FF0000"
	}

	p, err := s.loadPage(a.pageArgs)
	if err != nil {
		return nil, err
	}

	gray := p.buffer.Grid().Clone()
	if a.BlurRadius > 0 {
		smoothed, err := pixel.FromImage(blur.Gaussian(p.img, a.BlurRadius))
		if err != nil {
			return nil, err
		}
		gray = smoothed.Grid()
	}

	ws, err := watershed.New(a.Step, s.logger)
	if err != nil {
		return nil, err
	}
	boundaries, err := ws.Process(gray, a.BrightOnDark)
	if err != nil {
		return nil, err
	}

	result := &watershedResult{
		Width:          boundaries.Width(),
		Height:         boundaries.Height(),
		Region:         p.region,
		Step:           a.Step,
		Regions:        ws.RegionCount(),
		BoundaryPixels: boundaries.Count(),
	}

	if a.IncludeImage {
		line, err := imaging.ParseColor(a.LineColor)
		if err != nil {
			return nil, err
		}
		overlay, err := imaging.BoundaryOverlay(p.img, boundaries, line)
		if err != nil {
			return nil, err
		}
		if result.Image, err = imaging.EncodePNG(overlay, 1); err != nil {
			return nil, err
		}
	}
	return result, nil
}
