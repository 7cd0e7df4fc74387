// Package api documents the PodStudio HTTP API.
//
// # API Overview
//
// PodStudio exposes a single task entry point that forwards design work to
// the Gemini / Imagen API and reshapes the result:
//
//	POST /api/v1/tasks   (also served at /)
//	{"task": "<name>", "params": {...}}
//
// Supported tasks:
//
//	generateImage     {prompt, numberOfImages}                                      -> {images: [base64...]}
//	removeBackground  {mimeType, data}                                              -> {image: "data:<mime>;base64,<data>"}
//	applyDesign       {blankMockupBase64, designMimeType, designBase64, productName} -> {image: base64}
//	generateSeo       {productName, designDescription}                              -> {content: {title, description, features, tags}}
//	generateAltText   {mimeType, data}                                              -> {text}
//
// Failures return {"error": "<message>", "code": "<ERROR_CODE>"}:
//
//	400  unknown task or invalid params
//	405  method other than POST
//	413  request body too large
//	500  provider failure or unusable provider response
//
// # Authentication
//
// When server.api_keys is configured, requests must carry the X-API-Key
// header. When server.jwt.enabled is set, an HS256 bearer token is required:
//
//	Authorization: Bearer <token>
//
// # Operational Endpoints
//
//	GET /health, /healthz   liveness
//	GET /ready              readiness (includes the API key check)
//	GET /version            build information
//	GET /metrics            Prometheus metrics (separate port)
package api
