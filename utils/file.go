package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// FileProgress 文件读取进度
type FileProgress struct {
	// Loaded 已读取字节数
	Loaded int64
	// Total 总字节数
	Total int64
	// Percentage 进度百分比（0-100）
	Percentage int
}

// ReadFileAsStream 流式读取文件
//
// 示例：
//
//	progress := func(p FileProgress) {
//	    fmt.Printf("Progress: %d%%\n", p.Percentage)
//	}
//	data, err := ReadFileAsStream("treasury.boc", progress)
func ReadFileAsStream(filePath string, onProgress func(FileProgress)) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file failed: %w", err)
	}
	defer file.Close()

	// 获取文件大小
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("get file info failed: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}
	fileSize := fileInfo.Size()

	data := make([]byte, 0, fileSize)
	buffer := make([]byte, 64*1024) // 64KB 缓冲区

	for {
		n, err := file.Read(buffer)
		if n > 0 {
			data = append(data, buffer[:n]...)

			if onProgress != nil && fileSize > 0 {
				onProgress(FileProgress{
					Loaded:     int64(len(data)),
					Total:      fileSize,
					Percentage: int((int64(len(data)) * 100) / fileSize),
				})
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read file failed: %w", err)
		}
	}

	return data, nil
}

// compiledArtifact 合约编译产物（blueprint 输出的 *.compiled.json）
type compiledArtifact struct {
	Hex string `json:"hex"`
}

// LoadCodeCell 从文件加载合约代码 Cell
//
// **支持的格式**：
// 1. 二进制 BoC 文件
// 2. 编译产物 JSON：{"hex": "<BoC 十六进制>"}
// 3. 文本形式的 BoC（十六进制或 Base64）
func LoadCodeCell(filePath string) (*cell.Cell, error) {
	data, err := ReadFileAsStream(filePath, nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("code file %s is empty", filePath)
	}
	return ParseCodeCell(data)
}

// ParseCodeCell 从字节内容解析代码 Cell（格式同 LoadCodeCell）
func ParseCodeCell(data []byte) (*cell.Cell, error) {
	if c, err := cell.FromBOC(data); err == nil {
		return c, nil
	}

	text := bytes.TrimSpace(data)

	var artifact compiledArtifact
	if err := json.Unmarshal(text, &artifact); err == nil && artifact.Hex != "" {
		raw, err := hex.DecodeString(artifact.Hex)
		if err != nil {
			return nil, fmt.Errorf("decode compiled hex failed: %w", err)
		}
		return cell.FromBOC(raw)
	}

	if raw, err := hex.DecodeString(string(text)); err == nil {
		if c, err := cell.FromBOC(raw); err == nil {
			return c, nil
		}
	}
	if raw, err := base64.StdEncoding.DecodeString(string(text)); err == nil {
		if c, err := cell.FromBOC(raw); err == nil {
			return c, nil
		}
	}

	return nil, fmt.Errorf("unrecognized code format: expected BoC, compiled JSON, hex or base64")
}
