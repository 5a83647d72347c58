package mcp

// ToolDefinitions returns the tools the console exposes to MCP clients.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "ask_user",
			Description: "Ask the user a question and wait for their answer. Blocks until the user responds in the Agent Console or the request is cancelled.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"question": {Type: "string", Description: "The question to show the user"},
					"title":    {Type: "string", Description: "Short title for the request card", Default: "Confirmation Required"},
					"agentName": {
						Type:        "string",
						Description: "Name of the asking agent, shown as a title prefix",
						Default:     "Agent",
					},
				},
				Required: []string{"question"},
			},
		},
		{
			Name:        "plan_review",
			Description: "Present a plan or walkthrough for user review. Blocks until the user approves, requests changes, acknowledges, or closes the panel.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"plan":  {Type: "string", Description: "Markdown body of the plan or walkthrough"},
					"title": {Type: "string", Description: "Panel title", Default: "Plan Review"},
					"mode": {
						Type:        "string",
						Description: "review expects an approval decision; walkthrough expects an acknowledgement",
						Enum:        []string{"review", "walkthrough"},
						Default:     "review",
					},
				},
				Required: []string{"plan"},
			},
		},
		{
			Name:        "walkthrough_review",
			Description: "Present a finished-work walkthrough for the user to read. Blocks until the user acknowledges or closes the panel.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"plan":  {Type: "string", Description: "Markdown body of the walkthrough"},
					"title": {Type: "string", Description: "Panel title", Default: "Walkthrough"},
				},
				Required: []string{"plan"},
			},
		},
		{
			Name:        "create_task_list",
			Description: "Start a task session the user can follow and annotate in the Agent Console. Returns immediately.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"title": {Type: "string", Description: "Title of the task list"},
					"tasks": {
						Type:        "array",
						Description: "Ordered tasks to seed the list with",
						Items: &Property{
							Type: "object",
							Properties: map[string]Property{
								"title":       {Type: "string", Description: "Task title"},
								"description": {Type: "string", Description: "Optional details"},
							},
							Required: []string{"title"},
						},
					},
				},
				Required: []string{"title", "tasks"},
			},
		},
		{
			Name:        "get_next_task",
			Description: "Get the next unfinished task plus any feedback the user left since the last call.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"listId": {Type: "string", Description: "Task list id; omit for the most recent open list"},
				},
			},
		},
		{
			Name:        "update_task_status",
			Description: "Set a task's status. Completing the last task closes the list automatically.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"listId": {Type: "string", Description: "Task list id"},
					"taskId": {Type: "string", Description: "Task id within the list"},
					"status": {
						Type: "string",
						Enum: []string{"pending", "in-progress", "completed", "blocked"},
					},
				},
				Required: []string{"listId", "taskId", "status"},
			},
		},
		{
			Name:        "close_task_list",
			Description: "End a task session, returning per-status tallies and any unread user comments.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"listId": {Type: "string", Description: "Task list id"},
				},
				Required: []string{"listId"},
			},
		},
	}
}
