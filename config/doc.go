// Package config 提供 PodStudio 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（PODSTUDIO_ 前缀）的顺序叠加。
// Gemini API Key 另外兼容托管平台常用的 GEMINI_API_KEY / API_KEY 变量。
package config
