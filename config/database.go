package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/snowflakedb/gosnowflake"
)

// ConnectWarehouse establece la conexión con el warehouse analítico.
// El driver se elige por configuración: "snowflake" en producción,
// "mysql" para desarrollo local contra un esquema equivalente.
func ConnectWarehouse(cfg WarehouseConfig) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error al abrir la conexión con el warehouse: %w", err)
	}

	// Parámetros del pool de conexiones
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("no se pudo establecer la conexión con el warehouse: %w", err)
	}

	log.Printf("✅ Conexión establecida con el warehouse (driver=%s, db=%s)", cfg.Driver, cfg.Database)
	return db, nil
}

// CloseWarehouse cierra la conexión con el warehouse
func CloseWarehouse(db *sql.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Printf("❌ Error al cerrar la conexión con el warehouse: %v", err)
		return
	}
	log.Println("✅ Conexión con el warehouse cerrada")
}

func buildDSN(cfg WarehouseConfig) (string, error) {
	switch cfg.Driver {
	case "snowflake":
		if cfg.Account == "" || cfg.User == "" || cfg.Password == "" {
			return "", fmt.Errorf("faltan credenciales de Snowflake (SNOWFLAKE_ACCOUNT/USER/PASSWORD)")
		}
		// user:password@account/database/schema?warehouse=...&role=...
		return fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
			cfg.User,
			cfg.Password,
			cfg.Account,
			cfg.Database,
			cfg.Schema,
			cfg.Warehouse,
			cfg.Role,
		), nil

	case "mysql":
		if cfg.User == "" || cfg.Password == "" {
			return "", fmt.Errorf("faltan credenciales de MySQL (SNOWFLAKE_USER/PASSWORD)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Database,
		), nil

	default:
		return "", fmt.Errorf("driver de warehouse no soportado: %s", cfg.Driver)
	}
}
