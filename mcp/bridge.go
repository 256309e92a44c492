package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chipsock/chipsock/client"
	"github.com/chipsock/chipsock/proto"
)

// Bridge exposes the protocol client as MCP tools over stdio. It holds
// one upstream connection; the client serializes requests on it.
type Bridge struct {
	client    *client.Client
	mcpServer *MCPServer
}

func NewBridge(c *client.Client, mcpServer *MCPServer) *Bridge {
	b := &Bridge{client: c, mcpServer: mcpServer}
	b.registerTools()
	return b
}

// Start serves MCP requests until stdin closes.
func (b *Bridge) Start() error {
	return b.mcpServer.Run()
}

func (b *Bridge) Shutdown() error {
	slog.Info("Shutting down MCP bridge")
	return b.client.Close()
}

func (b *Bridge) registerTools() {
	waitTool := mcp.NewTool("wait_for_commissionee",
		mcp.WithDescription("Wait for a device node to become reachable"),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("Decimal node id, e.g. 305414945"),
		),
	)
	b.mcpServer.AddTool(waitTool, b.handleWaitForCommissionee)

	readTool := mcp.NewTool("read_attribute",
		mcp.WithDescription("Read a cluster attribute from one or more endpoints of a device"),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination device id, e.g. 0x12344321"),
		),
		mcp.WithString("endpoint_ids",
			mcp.Required(),
			mcp.Description("Endpoint id or comma-separated list, e.g. \"1\" or \"1,2\""),
		),
		mcp.WithString("cluster",
			mcp.Description("Cluster name (defaults to onoff)"),
		),
		mcp.WithString("attribute",
			mcp.Description("Attribute name, e.g. on-time (defaults to the cluster's primary attribute)"),
		),
	)
	b.mcpServer.AddTool(readTool, b.handleReadAttribute)

	writeTool := mcp.NewTool("write_attribute",
		mcp.WithDescription("Write a cluster attribute value on a device endpoint"),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination device id, e.g. 0x12344321"),
		),
		mcp.WithNumber("endpoint",
			mcp.Required(),
			mcp.Description("Endpoint id"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Attribute value as a string, e.g. \"50\""),
		),
		mcp.WithString("cluster",
			mcp.Description("Cluster name (defaults to onoff)"),
		),
		mcp.WithString("attribute",
			mcp.Description("Attribute name, e.g. on-time"),
		),
	)
	b.mcpServer.AddTool(writeTool, b.handleWriteAttribute)

	rawTool := mcp.NewTool("send_command",
		mcp.WithDescription("Send a raw cluster command with inline JSON arguments"),
		mcp.WithString("cluster",
			mcp.Required(),
			mcp.Description("Cluster name"),
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command name within the cluster"),
		),
		mcp.WithString("command_specifier",
			mcp.Description("Optional attribute/sub-field qualifier"),
		),
		mcp.WithObject("arguments",
			mcp.Description("Command arguments as a JSON object"),
		),
	)
	b.mcpServer.AddTool(rawTool, b.handleSendCommand)
}

func (b *Bridge) handleWaitForCommissionee(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("node_id is required and must be a string"), err
	}

	resp, err := b.client.WaitForCommissionee(nodeID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send command: %v", err)), err
	}

	return mcp.NewToolResultText(formatResponse(resp)), nil
}

func (b *Bridge) handleReadAttribute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	destination, err := request.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError("destination is required and must be a string"), err
	}
	endpointIDs, err := request.RequireString("endpoint_ids")
	if err != nil {
		return mcp.NewToolResultError("endpoint_ids is required and must be a string"), err
	}
	cluster := request.GetString("cluster", "onoff")
	attribute := request.GetString("attribute", "")

	cmd, err := proto.NewCommand(cluster, "read", attribute,
		proto.ArgumentsValue(proto.ReadArgs{
			DestinationID: destination,
			EndpointIDs:   endpointIDs,
		}))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build command: %v", err)), err
	}

	resp, err := b.client.Do(cmd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send command: %v", err)), err
	}

	return mcp.NewToolResultText(formatResponse(resp)), nil
}

func (b *Bridge) handleWriteAttribute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	destination, err := request.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError("destination is required and must be a string"), err
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value is required and must be a string"), err
	}
	endpoint := request.GetFloat("endpoint", 1)
	cluster := request.GetString("cluster", "onoff")
	attribute := request.GetString("attribute", "")

	resp, err := b.client.WriteAttribute(cluster, attribute, destination, uint16(endpoint), value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send command: %v", err)), err
	}

	return mcp.NewToolResultText(formatResponse(resp)), nil
}

func (b *Bridge) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cluster, err := request.RequireString("cluster")
	if err != nil {
		return mcp.NewToolResultError("cluster is required and must be a string"), err
	}
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("command is required and must be a string"), err
	}
	specifier := request.GetString("command_specifier", "")

	arguments := map[string]any{}
	if args := request.GetArguments(); args != nil {
		if obj, ok := args["arguments"].(map[string]any); ok {
			arguments = obj
		}
	}

	cmd, err := proto.NewCommand(cluster, command, specifier, proto.ArgumentsValue(arguments))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build command: %v", err)), err
	}

	resp, err := b.client.Do(cmd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send command: %v", err)), err
	}

	return mcp.NewToolResultText(formatResponse(resp)), nil
}

// formatResponse renders a response with its log messages decoded, so
// server-reported failures surface as readable data rather than tool
// errors.
func formatResponse(resp proto.Response) string {
	var sb strings.Builder

	body, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Sprintf("outcome: %s (response could not be rendered: %v)", proto.Classify(resp), err)
	}

	sb.WriteString("outcome: " + proto.Classify(resp).String() + "\n")
	sb.Write(body)

	for _, entry := range resp.Logs {
		text, err := entry.DecodeMessage()
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n[%s] %s", entry.Category, text))
	}

	return sb.String()
}
