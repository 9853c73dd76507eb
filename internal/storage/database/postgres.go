// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package database 封装 Postgres 连接池：原始 SQL 查询与表计数
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options 连接参数
type Options struct {
	ConnString string
	// ReadOnly 为 true 时 Query 在 READ ONLY 事务中执行
	ReadOnly bool
}

// DB 基于 pgxpool 的数据库边界
type DB struct {
	pool     *pgxpool.Pool
	readOnly bool
}

// Open 创建连接池并 Ping 校验
func Open(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("解析数据库连接串失败: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建连接池失败: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return &DB{pool: pool, readOnly: opts.ReadOnly}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.pool.Close()
}

// Ping 检查连接
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Query 执行参数化 SQL，按列名返回每一行
func (db *DB) Query(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	if !db.readOnly {
		return collect(db.pool.Query(ctx, sql, args...))
	}
	var out []map[string]any
	err := pgx.BeginTxFunc(ctx, db.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		var err error
		out, err = collect(tx.Query(ctx, sql, args...))
		return err
	})
	return out, err
}

// Count 返回表的行数
func (db *DB) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := db.pool.QueryRow(ctx, "SELECT count(*) FROM "+quoteTable(table)).Scan(&n)
	return n, err
}

// CountDistinct 返回表中某列去重后的个数
func (db *DB) CountDistinct(ctx context.Context, table, column string) (int64, error) {
	var n int64
	sql := fmt.Sprintf("SELECT count(DISTINCT %s) FROM %s", pgx.Identifier{column}.Sanitize(), quoteTable(table))
	err := db.pool.QueryRow(ctx, sql).Scan(&n)
	return n, err
}

func collect(rows pgx.Rows, err error) ([]map[string]any, error) {
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	for _, row := range out {
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
	}
	return out, nil
}

// quoteTable 支持 schema.table 形式，每段单独加引号
func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// normalizeValue 把驱动返回的值转换为 JSON 友好的形态
func normalizeValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case []any:
		for i := range x {
			x[i] = normalizeValue(x[i])
		}
		return x
	default:
		return v
	}
}
