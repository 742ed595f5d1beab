package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
)

// 指纹取 sha256 摘要的前 16 个十六进制字符（64 位）。
// 截断牺牲全局唯一性，换取便于人工核对的短标识；指纹只用于确定性与追溯，
// 不作为内容寻址存储的正确性依据，碰撞风险可接受。
const hexLen = 16

// File 流式计算文件指纹。
// 功能：按 8KiB 分块读取文件内容并累积 sha256，返回截断后的十六进制指纹。
// 参数：path 文件路径。
// 返回：16 位十六进制指纹；打开或读取失败时原样返回 I/O 错误。
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	buf := make([]byte, 8192)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:hexLen], nil
}

// Structured 计算结构化文档的指纹。
// 功能：先做规范化序列化（map 键排序，encoding/json 对 map 天然保证），
// 使键序不同但语义相同的文档得到相同指纹，再计算 sha256 并截断。
func Structured(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:hexLen], nil
}

// Data 对原始 JSON 字节计算指纹。
// 功能：先解码再走 Structured，抹平键序与空白差异；非法 JSON 返回解码错误。
func Data(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return Structured(v)
}
