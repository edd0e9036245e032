package server

// Instructions is the MCP instructions message injected into the system prompt.
// Kept concise but directive. The guide action carries the full workflow.
const Instructions = `ACP coordinates audit evidence collection against an assessment engine: submit a test script, upload evidence in rounds until no controls are pending, then generate and download the workpaper. Call audit_workflow action="guide" before the first audit. Check control coverage with audit_checklist, find controls and evidence with audit_search, or read acp://guides/audit for the full workflow.`
