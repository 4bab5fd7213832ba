package server

import (
	"github.com/ironsheep/omr-match-mcp/internal/distance"
	"github.com/ironsheep/omr-match-mcp/internal/template"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var regionNames = []string{"full", "top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"}

// pageSchema returns an object schema holding the page loading and
// binarization properties plus extra.
func pageSchema(extra map[string]interface{}, required ...string) map[string]interface{} {
	properties := map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the page image",
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional area to analyze; (x1,y1) inclusive, (x2,y2) exclusive. Results are reported in page coordinates.",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"named_region": map[string]interface{}{
			"type":        "string",
			"enum":        regionNames,
			"description": "Named area to analyze, used when region is absent",
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Global binarization threshold: gray levels at or below it are foreground. Defaults to the server setting (140).",
		},
		"adaptive": map[string]interface{}{
			"type":        "boolean",
			"description": "Use Sauvola adaptive binarization instead of a global threshold",
			"default":     false,
		},
		"window": map[string]interface{}{
			"type":        "integer",
			"description": "Adaptive window side in pixels. Default 31",
		},
		"sensitivity": map[string]interface{}{
			"type":        "number",
			"description": "Adaptive sensitivity k. Default 0.2",
		},
	}
	for k, v := range extra {
		properties[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   append([]string{"path"}, required...),
	}
}

func shapeNames() []string {
	shapes := template.Shapes()
	names := make([]string, len(shapes))
	for i, s := range shapes {
		names[i] = s.String()
	}
	return names
}

func kernelProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        distance.KernelNames(),
		"description": "Chamfer kernel. Defaults to the server setting (chamfer3).",
	}
}

func variantProperties() (lines, stem map[string]interface{}) {
	lines = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"any", "none", "middle"},
		"description": "Restrict to variants without a staff line or with a line through the middle. Default any",
	}
	stem = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"any", "none", "left", "right"},
		"description": "Restrict to variants by stem side. Default any",
	}
	return lines, stem
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	lines, stem := variantProperties()

	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a page image and return its dimensions, format and color model. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_unload",
			Description: "Drop a cached page image and every distance table computed on it. Use after the file changed on disk or to free memory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path the image was loaded with",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Symbol Analysis
		{
			Name:        "omr_distance_transform",
			Description: "Binarize a page and compute the chamfer distance from every pixel to the nearest foreground pixel. Returns statistics and optionally a heat map.",
			InputSchema: pageSchema(map[string]interface{}{
				"kernel": kernelProperty(),
				"include_image": map[string]interface{}{
					"type":        "boolean",
					"description": "Return the distance heat map as base64 PNG",
					"default":     false,
				},
				"include_binary": map[string]interface{}{
					"type":        "boolean",
					"description": "Return the binarized page the transform ran on as base64 PNG",
					"default":     false,
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor for the heat map. Default 1.0",
					"default":     1.0,
				},
			}),
		},
		{
			Name:        "omr_template_info",
			Description: "Build the distance templates of a music shape at a given interline and describe their variants, key points and anchors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shape": map[string]interface{}{
						"type": "string",
						"enum": shapeNames(),
					},
					"interline": map[string]interface{}{
						"type":        "integer",
						"description": "Distance between two staff lines in pixels",
					},
					"lines": lines,
					"stem":  stem,
					"include_dump": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a text dump of every variant",
						"default":     false,
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a magnified image of every variant with its anchors",
						"default":     false,
					},
				},
				"required": []string{"shape", "interline"},
			},
		},
		{
			Name:        "omr_match_shape",
			Description: "Find the placements where a music shape template matches the page. Candidates are sorted by mean squared distance, best first.",
			InputSchema: pageSchema(map[string]interface{}{
				"shape": map[string]interface{}{
					"type": "string",
					"enum": shapeNames(),
				},
				"interline": map[string]interface{}{
					"type":        "integer",
					"description": "Distance between two staff lines in pixels. Estimated from the page when omitted.",
				},
				"max_distance": map[string]interface{}{
					"type":        "number",
					"description": "Largest accepted mean squared distance, in pixels squared. Default 0.5",
				},
				"kernel": kernelProperty(),
				"lines":  lines,
				"stem":   stem,
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of candidates returned. Defaults to the server setting (200).",
				},
				"include_image": map[string]interface{}{
					"type":        "boolean",
					"description": "Return the page with candidate boxes as base64 PNG",
					"default":     false,
				},
				"box_color": map[string]interface{}{
					"type":        "string",
					"description": "Box color as #RRGGBB. Default #FF0000",
				},
			}, "shape"),
		},
		{
			Name:        "omr_staff_scale",
			Description: "Estimate staff line thickness, line gap and interline from vertical run lengths of the binarized page.",
			InputSchema: pageSchema(nil),
		},
		{
			Name:        "omr_watershed",
			Description: "Segment the gray page into catchment basins with a watershed transform and report the basin count and boundary pixels.",
			InputSchema: pageSchema(map[string]interface{}{
				"bright_on_dark": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat bright areas as basins (the gray levels are inverted)",
					"default":     false,
				},
				"step": map[string]interface{}{
					"type":        "integer",
					"description": "Number of gray levels flooded together (1-256). Defaults to the server setting (1).",
				},
				"blur_radius": map[string]interface{}{
					"type":        "number",
					"description": "Gaussian smoothing radius applied before flooding. Default 0 (none)",
				},
				"include_image": map[string]interface{}{
					"type":        "boolean",
					"description": "Return the page with boundaries painted as base64 PNG",
					"default":     false,
				},
				"line_color": map[string]interface{}{
					"type":        "string",
					"description": "Boundary color as #RRGGBB. Default #FF0000",
				},
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
