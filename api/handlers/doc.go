// Copyright (c) PodStudio Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 PodStudio HTTP API 的请求处理器实现。

# 概述

handlers 包实现单入口任务分发、健康检查以及统一的 JSON 响应/错误处理。
所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - TaskHandler      — 任务分发器，POST {task, params} → studio.Registry
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready, /version）
  - ErrorResponse    — 错误响应体 {error, code}
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck      — 可插拔健康检查接口

# 错误转换

TaskHandler 是内部错误到 HTTP 响应的唯一转换点：
参数校验错误返回 400，其余任务错误（上游错误、响应缺图、解析失败）一律 500。
错误消息为空时返回 "An unknown error occurred."。
*/
package handlers
