package utils

import (
	"strings"
)

/*
SplitSolid
跟strings.Split类似，但忽略返回结果中的空字符串
*/
func SplitSolid(text string, sep string) []string {
	arr := strings.Split(text, sep)
	result := []string{}
	for _, str := range arr {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

/*
PadCenter
将文本居中填充到指定宽度
*/
func PadCenter(text string, width int, fill string) string {
	if fill == "" {
		fill = " "
	}
	total := width - len(text)
	if total <= 0 {
		return text
	}
	left := total / 2
	right := total - left
	return strings.Repeat(fill, left) + text + strings.Repeat(fill, right)
}

func ValsOfMap[M ~map[K]V, K comparable, V any](m M) []V {
	res := make([]V, 0, len(m))
	for _, v := range m {
		res = append(res, v)
	}
	return res
}

/*
DeepCopyMap
将src的键值深度合并到dst，嵌套map递归合并，其他类型直接覆盖
*/
func DeepCopyMap(dst, src map[string]interface{}) {
	for key, val := range src {
		if srcMap, ok := val.(map[string]interface{}); ok {
			if dstMap, ok2 := dst[key].(map[string]interface{}); ok2 {
				DeepCopyMap(dstMap, srcMap)
				continue
			}
		}
		dst[key] = val
	}
}
