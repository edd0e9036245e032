package server

import (
	"context"
	"strings"

	"github.com/auditstack/acp/internal/content"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceURIPrefix = "acp://guides/"

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: "acp://guides/{+path}",
			Name:        "acp-guides",
			Description: "ACP workflow guides. Read acp://guides/audit for the full audit evidence workflow.",
			MIMEType:    "text/markdown",
		},
		func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			uri := req.Params.URI
			if !strings.HasPrefix(uri, resourceURIPrefix) {
				return nil, mcp.ResourceNotFoundError(uri)
			}

			guide, err := content.GetGuide(strings.TrimPrefix(uri, resourceURIPrefix))
			if err != nil {
				return nil, mcp.ResourceNotFoundError(uri)
			}

			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     guide,
				}},
			}, nil
		},
	)
}
