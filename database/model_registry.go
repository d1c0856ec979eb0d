/*
 * Copyright 2025 The burrow Authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"sort"
	"sync"
)

// SchemaModel declares a Bun model that participates in the schema baseline.
// Instance returns a struct pointer compatible with Bun; Priority controls
// table-creation order (lower values first, so referenced tables can come
// before referencing ones).
type SchemaModel interface {
	Instance() interface{}
	Priority() int
}

type schemaRegistry struct {
	mu     sync.RWMutex
	models []SchemaModel
}

var defaultSchemaRegistry = &schemaRegistry{}

func (r *schemaRegistry) register(model SchemaModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, model)
}

func (r *schemaRegistry) sorted() []SchemaModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SchemaModel, len(r.models))
	copy(out, r.models)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

type schemaModel struct {
	instance interface{}
	priority int
}

func (m *schemaModel) Instance() interface{} { return m.instance }
func (m *schemaModel) Priority() int         { return m.priority }

// RegisterModel adds a Bun model instance to the schema baseline with the
// given priority. Typically called from init in the application's schema
// package.
func RegisterModel(instance interface{}, priority int) {
	defaultSchemaRegistry.register(&schemaModel{instance: instance, priority: priority})
}

// RegisteredModels returns the registered models sorted by ascending priority.
func RegisteredModels() []SchemaModel {
	return defaultSchemaRegistry.sorted()
}

// RegisteredModelInstances returns the registered model struct pointers in
// priority order, ready for bun.DB.RegisterModel or table creation.
func RegisteredModelInstances() []interface{} {
	models := RegisteredModels()
	instances := make([]interface{}, len(models))
	for i, m := range models {
		instances[i] = m.Instance()
	}
	return instances
}
