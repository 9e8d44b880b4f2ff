package urlbatch

import (
	"errors"
	"sync"

	"github.com/sqids/sqids-go"
)

var ErrInvalidTaskCode = errors.New("invalid task code")

var (
	sq   *sqids.Sqids
	once sync.Once
)

func getSqids() *sqids.Sqids {
	once.Do(func() {
		var err error
		sq, err = sqids.New(sqids.Options{
			Alphabet:  "Xq4WbLr0ZkTn8sJ2dPmVfA7hGcE5yRu1NoB9iHwtSjK3QaFgC6eYvUxIzMplOD",
			MinLength: 6,
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return sq
}

// EncodeTaskCode 把自增任务 ID 编码成对外展示的任务码。
func EncodeTaskCode(id int64) (string, error) {
	if id <= 0 {
		return "", ErrInvalidTaskCode
	}
	return getSqids().Encode([]uint64{uint64(id)})
}

// DecodeTaskCode 是 EncodeTaskCode 的逆操作；非规范编码视为无效。
func DecodeTaskCode(code string) (int64, error) {
	ids := getSqids().Decode(code)
	if len(ids) != 1 || ids[0] == 0 {
		return 0, ErrInvalidTaskCode
	}
	canonical, err := getSqids().Encode(ids)
	if err != nil || canonical != code {
		return 0, ErrInvalidTaskCode
	}
	return int64(ids[0]), nil
}
