// Copyright (c) PodStudio Authors.
// Licensed under the MIT License.

/*
Package types 提供 PodStudio 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 llm、studio、api
等上层模块提供统一的错误契约。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 主要能力

  - 路由错误：INVALID_REQUEST / INVALID_TASK / METHOD_NOT_ALLOWED
  - Provider 契约错误：NO_IMAGES / NO_IMAGE_RETURNED / NO_IMAGE_DATA / UNEXPECTED_FORMAT
  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
*/
package types
