package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TokenSessionKey returns the cache key for one issued access token
func (r *CacheKeyStruct) TokenSessionKey(userID int64, tokenID string) string {
	return fmt.Sprintf("user:%d:token:%s", userID, tokenID)
}

var CacheKey = NewCacheKeyStruct()
