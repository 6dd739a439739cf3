// Package common provides the data structures shared by the client and the server
// side of skv: the command model, status codes, configuration and logging.
//
// The package focuses on:
//   - Command protocol definition (requests, responses, status codes)
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger registry
//
// Key Components:
//
//   - CommandRequest: A request carries exactly one of nine command variants
//     (Hget, Hgetall, Hmget, Hset, Hmset, Hdel, Hmdel, Hexist, Hmexist) in its Data
//     field. Factory functions (NewHgetRequest, ...) build well formed requests.
//
//   - CommandResponse: Status, diagnostic message and the result sequences. Factory
//     functions build success responses and map errors onto status codes.
//
//   - ServerConfig / ClientConfig: Configuration for server and client components
//     including transport, TLS, protocol and storage settings, each with a
//     human-readable String() form.
//
//   - Logger: zap backed implementation of dragonboat's ILogger. Packages obtain
//     named loggers with logger.GetLogger(name) and InitLoggers sets their level.
package common
