package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/omr-match-mcp/internal/config"
	"github.com/ironsheep/omr-match-mcp/internal/imaging"
	"github.com/ironsheep/omr-match-mcp/internal/template"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:          "info",
		LogFormat:         "console",
		Kernel:            "chamfer3",
		Threshold:         140,
		TemplateThreshold: 175,
		SmallRatio:        0.67,
		StemDX:            0.05,
		WatershedStep:     1,
		MaxCandidates:     200,
		MaxTables:         16,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// writePNG encodes img into a temporary PNG file and returns its path.
func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// createTestImageFile creates a uniformly colored test image file and
// returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return writePNG(t, img)
}

// createGlyphPage pastes a rendered note head on a white page.
func createGlyphPage(t *testing.T, width, height int, shape template.Shape, interline int, key template.Key, at image.Point) string {
	t.Helper()
	r, err := template.NewSyntheticRenderer(0.67)
	if err != nil {
		t.Fatalf("NewSyntheticRenderer failed: %v", err)
	}
	glyph, err := r.Render(shape, interline, key)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	page := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(page, glyph.Image.Bounds().Add(at), glyph.Image, image.Point{}, draw.Src)
	return writePNG(t, page)
}

// createStaffPage draws full-width black lines of the given thickness every
// interline pixels on a white page.
func createStaffPage(t *testing.T, width, height, interline, thickness int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for top := interline; top+thickness <= height; top += interline {
		draw.Draw(img, image.Rect(0, top, width, top+thickness), image.Black, image.Point{}, draw.Src)
	}
	return writePNG(t, img)
}

// callTool sends a tools/call request through the server and decodes the
// text content into out. It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()
	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode tool result: %v", err)
		}
	}
	return nil
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	if err := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}, &info); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("got %+v, want 100x80 png", info)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}, &dims); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	err := callTool(t, s, "image_ocr_full", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if err.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", err.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want -32602", resp.Error)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range []string{"image_load", "omr_distance_transform", "omr_match_shape", "omr_watershed", "omr_staff_scale"} {
		args := map[string]interface{}{"path": "/nonexistent/page.png", "shape": "NOTEHEAD_BLACK", "interline": 20}
		if err := callTool(t, s, tool, args, nil); err == nil {
			t.Errorf("%s: expected error for missing file", tool)
		}
	}
}

func TestDistanceTransform(t *testing.T) {
	s := newTestServer(t)
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	img.SetGray(0, 0, color.Gray{})
	path := writePNG(t, img)

	var result distanceTransformResult
	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{
		"path":          path,
		"include_image": true,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Width != 20 || result.Height != 10 {
		t.Errorf("size: got %dx%d, want 20x10", result.Width, result.Height)
	}
	if result.ForegroundPixels != 1 || result.UnreachablePixels != 0 {
		t.Errorf("got %d foreground and %d unreachable, want 1 and 0", result.ForegroundPixels, result.UnreachablePixels)
	}
	if result.Normalizer != 3 {
		t.Errorf("Normalizer: got %d, want 3 for chamfer3", result.Normalizer)
	}
	// Chamfer3 from (0,0) to (19,9): 9 diagonal steps of 4 and 10 straight steps of 3.
	if want := float64(9*4+10*3) / 3; result.MaxDistance != want {
		t.Errorf("MaxDistance: got %v, want %v", result.MaxDistance, want)
	}
	if result.Image == nil || result.Image.Width != 20 || result.Image.MimeType != "image/png" {
		t.Errorf("unexpected heat map: %+v", result.Image)
	}
}

// decodeImageResult decodes the base64 PNG of an image result.
func decodeImageResult(t *testing.T, r *imaging.ImageResult) image.Image {
	t.Helper()
	if r == nil {
		t.Fatal("image result missing")
	}
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	return img
}

func TestDistanceTransform_Binary(t *testing.T) {
	s := newTestServer(t)
	img := image.NewGray(image.Rect(0, 0, 6, 4))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	img.SetGray(1, 1, color.Gray{Y: 100})
	img.SetGray(4, 2, color.Gray{Y: 200})
	path := writePNG(t, img)

	for _, tc := range []struct {
		name string
		args map[string]interface{}
		// foreground expected at (1,1) and (4,2)
		fore [2]bool
	}{
		{"default threshold", map[string]interface{}{}, [2]bool{true, false}},
		{"high threshold", map[string]interface{}{"threshold": 200}, [2]bool{true, true}},
		{"adaptive", map[string]interface{}{"adaptive": true, "window": 3, "sensitivity": 0.2}, [2]bool{true, true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.args["path"] = path
			tc.args["include_binary"] = true
			var result distanceTransformResult
			if err := callTool(t, s, "omr_distance_transform", tc.args, &result); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result.Image != nil {
				t.Error("heat map returned without include_image")
			}
			bin := decodeImageResult(t, result.Binary)
			if bin.Bounds().Dx() != 6 || bin.Bounds().Dy() != 4 {
				t.Fatalf("binary size: got %v, want 6x4", bin.Bounds())
			}
			for i, p := range []image.Point{{1, 1}, {4, 2}} {
				gray := color.GrayModel.Convert(bin.At(p.X, p.Y)).(color.Gray).Y
				if fore := gray == 0; fore != tc.fore[i] {
					t.Errorf("pixel %v: gray %d, want foreground=%v", p, gray, tc.fore[i])
				}
			}
			if gray := color.GrayModel.Convert(bin.At(0, 3)).(color.Gray).Y; gray != 255 {
				t.Errorf("paper pixel: gray %d, want 255", gray)
			}
		})
	}
}

func TestDistanceTransform_ExplicitZeroSettings(t *testing.T) {
	s := newTestServer(t)
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 1})
	path := writePNG(t, img)

	var result distanceTransformResult
	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{"path": path}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ForegroundPixels != 2 {
		t.Errorf("default threshold: got %d foreground pixels, want 2", result.ForegroundPixels)
	}

	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{"path": path, "threshold": 0}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ForegroundPixels != 1 {
		t.Errorf("threshold 0: got %d foreground pixels, want 1", result.ForegroundPixels)
	}

	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{
		"path": path, "adaptive": true, "window": 3,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ForegroundPixels != 2 {
		t.Errorf("default sensitivity: got %d foreground pixels, want 2", result.ForegroundPixels)
	}

	// Zero sensitivity makes the local mean the threshold, so the flat
	// paper window at the right end is at its threshold.
	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{
		"path": path, "adaptive": true, "window": 3, "sensitivity": 0,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ForegroundPixels != 3 {
		t.Errorf("sensitivity 0: got %d foreground pixels, want 3", result.ForegroundPixels)
	}

	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{
		"path": path, "adaptive": true, "window": 0,
	}, nil); err == nil {
		t.Error("expected error for window 0")
	}
}

func TestDistanceTransform_BlankPage(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 8, 6, color.White)

	var result distanceTransformResult
	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{"path": path}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.UnreachablePixels != 48 || result.ForegroundPixels != 0 || result.MaxDistance != 0 {
		t.Errorf("blank page: got %+v, want every pixel unreachable", result)
	}
}

func TestDistanceTransform_CachesTables(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 12, 12, color.Black)

	args := map[string]interface{}{"path": path, "kernel": "chamfer5"}
	for i := 0; i < 2; i++ {
		if err := callTool(t, s, "omr_distance_transform", args, nil); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if n := s.tables.len(); n != 1 {
		t.Errorf("table cache holds %d tables, want 1", n)
	}

	args["threshold"] = 30
	if err := callTool(t, s, "omr_distance_transform", args, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n := s.tables.len(); n != 2 {
		t.Errorf("table cache holds %d tables, want 2 after a threshold change", n)
	}
}

func TestTableCache_DropsOldest(t *testing.T) {
	c := newTableCache(2)
	keys := []tableKey{
		{path: "a.png", kernel: "chamfer3"},
		{path: "a.png", kernel: "chamfer5"},
		{path: "b.png", kernel: "chamfer3"},
	}
	for _, k := range keys {
		c.put(k, nil)
	}
	if n := c.len(); n != 2 {
		t.Fatalf("cache holds %d tables, want 2", n)
	}
	if _, ok := c.get(keys[0]); ok {
		t.Error("oldest table still cached")
	}
	for _, k := range keys[1:] {
		if _, ok := c.get(k); !ok {
			t.Errorf("table %+v missing", k)
		}
	}

	// Replacing a cached table does not count twice.
	c.put(keys[2], nil)
	if _, ok := c.get(keys[1]); !ok || c.len() != 2 {
		t.Error("replacing a table evicted another one")
	}

	if n := c.evictPath("a.png"); n != 1 {
		t.Errorf("evictPath dropped %d tables, want 1", n)
	}
	c.clear()
	if n := c.len(); n != 0 {
		t.Errorf("clear left %d tables", n)
	}
}

func TestImageUnload(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 10, 10, color.Black)
	other := createTestImageFile(t, 10, 10, color.Black)

	for _, args := range []map[string]interface{}{
		{"path": path, "kernel": "chamfer3"},
		{"path": path, "kernel": "chamfer5"},
		{"path": other},
	} {
		if err := callTool(t, s, "omr_distance_transform", args, nil); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	var result imageUnloadResult
	if err := callTool(t, s, "image_unload", map[string]interface{}{"path": path}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.ImageEvicted || result.TablesEvicted != 2 {
		t.Errorf("got %+v, want image and 2 tables evicted", result)
	}
	if s.cache.Len() != 1 || s.tables.len() != 1 {
		t.Errorf("after unload: %d images and %d tables cached, want 1 and 1", s.cache.Len(), s.tables.len())
	}

	if err := callTool(t, s, "image_unload", map[string]interface{}{"path": path}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ImageEvicted || result.TablesEvicted != 0 {
		t.Errorf("second unload: got %+v, want nothing evicted", result)
	}

	if err := callTool(t, s, "image_unload", map[string]interface{}{}, nil); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestDistanceTransform_InvalidKernel(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 4, 4, color.White)
	if err := callTool(t, s, "omr_distance_transform", map[string]interface{}{"path": path, "kernel": "euclid"}, nil); err == nil {
		t.Error("expected error for unknown kernel")
	}
}

func TestTemplateInfo(t *testing.T) {
	s := newTestServer(t)

	var result templateInfoResult
	if err := callTool(t, s, "omr_template_info", map[string]interface{}{
		"shape":        "notehead_black",
		"interline":    16,
		"include_dump": true,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Shape != "NOTEHEAD_BLACK" || result.Interline != 16 {
		t.Errorf("got %s at %d, want NOTEHEAD_BLACK at 16", result.Shape, result.Interline)
	}
	if len(result.Variants) != 6 {
		t.Fatalf("got %d variants, want 6", len(result.Variants))
	}
	for _, v := range result.Variants {
		if v.ForegroundPoints == 0 {
			t.Errorf("%s/%s: no foreground points", v.Lines, v.Stem)
		}
		if v.HolePoints != 0 {
			t.Errorf("%s/%s: black head has %d hole points", v.Lines, v.Stem, v.HolePoints)
		}
		if v.Dump == "" {
			t.Errorf("%s/%s: missing dump", v.Lines, v.Stem)
		}
		found := false
		for _, a := range v.Anchors {
			if a.Name == "CENTER" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s/%s: no CENTER anchor in %+v", v.Lines, v.Stem, v.Anchors)
		}
	}
}

func TestTemplateInfo_Filtered(t *testing.T) {
	s := newTestServer(t)

	var result templateInfoResult
	if err := callTool(t, s, "omr_template_info", map[string]interface{}{
		"shape":         "NOTEHEAD_VOID",
		"interline":     20,
		"stem":          "left",
		"include_image": true,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(result.Variants))
	}
	for _, v := range result.Variants {
		if v.Stem != "left" {
			t.Errorf("variant stem %s, want left", v.Stem)
		}
		if v.HolePoints == 0 {
			t.Error("void head should have hole points")
		}
		if v.Image == nil || v.Image.Width != result.Width*decoratedScale {
			t.Errorf("decorated image: %+v", v.Image)
		}
	}
}

func TestTemplateInfo_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown shape", map[string]interface{}{"shape": "G_CLEF", "interline": 20}},
		{"missing interline", map[string]interface{}{"shape": "NOTEHEAD_BLACK"}},
		{"bad stem", map[string]interface{}{"shape": "NOTEHEAD_BLACK", "interline": 20, "stem": "up"}},
		{"whole note with stem", map[string]interface{}{"shape": "WHOLE_NOTE", "interline": 20, "stem": "left"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := callTool(t, s, "omr_template_info", tt.args, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMatchShape(t *testing.T) {
	s := newTestServer(t)
	key := template.Key{Lines: template.LinesNone, Stem: template.StemNone}
	at := image.Pt(30, 25)
	path := createGlyphPage(t, 120, 90, template.NoteheadVoid, 20, key, at)

	var result matchShapeResult
	if err := callTool(t, s, "omr_match_shape", map[string]interface{}{
		"path":          path,
		"shape":         "NOTEHEAD_VOID",
		"interline":     20,
		"threshold":     174,
		"lines":         "none",
		"include_image": true,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.InterlineEstimated {
		t.Error("interline was given, not estimated")
	}
	if len(result.Candidates) == 0 {
		t.Fatal("no candidate found")
	}
	best := result.Candidates[0]
	if best.X != at.X || best.Y != at.Y || best.D != 0 {
		t.Errorf("best = %v, want (%d,%d) d=0", best.PixelDistance, at.X, at.Y)
	}
	if best.Lines != "none" || best.Stem != "none" {
		t.Errorf("best variant %s/%s, want none/none", best.Lines, best.Stem)
	}
	if result.Total < len(result.Candidates) {
		t.Errorf("Total %d smaller than %d returned candidates", result.Total, len(result.Candidates))
	}
	for i := 1; i < len(result.Candidates); i++ {
		if result.Candidates[i].D < result.Candidates[i-1].D {
			t.Fatalf("candidates not sorted at %d", i)
		}
	}
	if result.Image == nil || result.Image.Width != 120 || result.Image.Height != 90 {
		t.Errorf("unexpected overlay: %+v", result.Image)
	}
}

func TestMatchShape_RegionReportsPageCoordinates(t *testing.T) {
	s := newTestServer(t)
	key := template.Key{Lines: template.LinesNone, Stem: template.StemNone}
	at := image.Pt(30, 25)
	path := createGlyphPage(t, 120, 90, template.NoteheadVoid, 20, key, at)

	var result matchShapeResult
	if err := callTool(t, s, "omr_match_shape", map[string]interface{}{
		"path":      path,
		"shape":     "NOTEHEAD_VOID",
		"interline": 20,
		"threshold": 174,
		"lines":     "none",
		"stem":      "none",
		"limit":     1,
		"region":    map[string]interface{}{"x1": 10, "y1": 5, "x2": 120, "y2": 90},
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 (limit)", len(result.Candidates))
	}
	best := result.Candidates[0]
	if best.X != at.X || best.Y != at.Y {
		t.Errorf("best at (%d,%d), want page coordinates (%d,%d)", best.X, best.Y, at.X, at.Y)
	}
	if best.Bounds.X1 != at.X || best.Bounds.Y1 != at.Y {
		t.Errorf("bounds %+v not in page coordinates", best.Bounds)
	}
	if best.Center.X <= at.X || best.Center.Y <= at.Y {
		t.Errorf("center %+v should lie inside the glyph box", best.Center)
	}
}

func TestMatchShape_EstimatesInterline(t *testing.T) {
	s := newTestServer(t)
	path := createStaffPage(t, 60, 200, 20, 2)

	var result matchShapeResult
	if err := callTool(t, s, "omr_match_shape", map[string]interface{}{
		"path":  path,
		"shape": "NOTEHEAD_BLACK",
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.InterlineEstimated || result.Interline != 20 {
		t.Errorf("interline = %d (estimated %v), want estimated 20", result.Interline, result.InterlineEstimated)
	}
}

func TestMatchShape_BlankPageWithoutInterline(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 40, 40, color.White)

	err := callTool(t, s, "omr_match_shape", map[string]interface{}{"path": path, "shape": "NOTEHEAD_BLACK"}, nil)
	if err == nil {
		t.Fatal("expected error when the interline cannot be estimated")
	}
	if data, _ := err.Data.(string); !strings.Contains(data, "interline") {
		t.Errorf("error data %q should mention the interline", data)
	}
}

func TestStaffScale(t *testing.T) {
	s := newTestServer(t)
	path := createStaffPage(t, 50, 200, 24, 3)

	var result staffScaleResult
	if err := callTool(t, s, "omr_staff_scale", map[string]interface{}{"path": path}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Interline != 24 || result.LineThickness != 3 || result.Gap != 21 {
		t.Errorf("got %+v, want interline 24, thickness 3, gap 21", result.Scale)
	}
}

func TestWatershed(t *testing.T) {
	s := newTestServer(t)
	img := image.NewGray(image.Rect(0, 0, 9, 5))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 200}), image.Point{}, draw.Src)
	img.SetGray(2, 2, color.Gray{Y: 10})
	img.SetGray(6, 2, color.Gray{Y: 10})
	path := writePNG(t, img)

	var result watershedResult
	if err := callTool(t, s, "omr_watershed", map[string]interface{}{
		"path":          path,
		"include_image": true,
		"line_color":    "#00FF00",
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Regions != 2 {
		t.Errorf("Regions: got %d, want 2", result.Regions)
	}
	if result.BoundaryPixels == 0 {
		t.Error("expected boundary pixels between the two basins")
	}
	if result.Step != 1 {
		t.Errorf("Step: got %d, want the configured 1", result.Step)
	}
	if result.Image == nil || result.Image.Width != 9 || result.Image.Height != 5 {
		t.Errorf("unexpected overlay: %+v", result.Image)
	}
}

func TestWatershed_ConstantPage(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 16, 12, color.Gray{Y: 128})

	var result watershedResult
	if err := callTool(t, s, "omr_watershed", map[string]interface{}{
		"path": path,
		"step": 4,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Regions != 1 || result.BoundaryPixels != 0 {
		t.Errorf("constant page: %d regions, %d boundary pixels, want 1 and 0", result.Regions, result.BoundaryPixels)
	}
}

func TestWatershed_Smoothed(t *testing.T) {
	s := newTestServer(t)
	img := image.NewGray(image.Rect(0, 0, 24, 12))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 220}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(3, 3, 7, 7), image.Black, image.Point{}, draw.Src)
	path := writePNG(t, img)

	var result watershedResult
	if err := callTool(t, s, "omr_watershed", map[string]interface{}{
		"path":        path,
		"blur_radius": 1.5,
	}, &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Regions < 1 || result.Width != 24 || result.Height != 12 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestWatershed_InvalidArguments(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 4, 4, color.White)

	for _, args := range []map[string]interface{}{
		{"path": path, "step": 300},
		{"path": path, "include_image": true, "line_color": "crimson"},
		{"path": path, "named_region": "middle"},
	} {
		if err := callTool(t, s, "omr_watershed", args, nil); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}
