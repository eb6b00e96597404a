package commands

// RenderStatus exposes renderStatus for tests.
var RenderStatus = renderStatus
