package main

// General API documentation for swaggo. Regenerate docs after changing the
// HTTP surface.
//
// @title           reviewd API
// @version         1.0
// @description     HTTP API for code-review suggestions and test-case generation backed by a local Ollama server.
//
// @contact.name   reviewd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
