// Copyright (c) PodStudio Authors.
// Licensed under the MIT License.

/*
Package gemini 提供 Google Gemini / Imagen REST API 的最小客户端。

# 概述

客户端直接使用 generativelanguage.googleapis.com 的 v1beta REST 接口，
通过 x-goog-api-key 请求头认证，不依赖官方 SDK。

# 核心类型

  - Client                 — 并发安全的 REST 客户端，进程级单例
  - GenerateContentRequest — 多模态 generateContent 请求（Part / Content / GenerationConfig）
  - Schema                 — responseSchema 结构化输出定义
  - GenerateImagesRequest  — Imagen predict 请求
  - Recorder               — 每次上游调用的指标回调

# 主要能力

  - 文本 + 内联图像的多模态输入，IMAGE / TEXT 输出模态
  - JSON 结构化输出（responseMimeType + responseSchema）
  - HTTP 状态码 → types.Error 映射（认证、限流、配额、上游错误）
  - 每次调用一个 OpenTelemetry client span，无重试
*/
package gemini
