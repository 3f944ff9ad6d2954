// Package repository define las entidades de dominio del subsistema de
// email y los contratos de persistencia que implementan los adapters
// (pg, memory). Los services dependen solo de estas interfaces.
package repository
