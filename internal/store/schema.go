package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions applied by the auto-migration in Open.
var (
	// PatientsColumns holds the columns for the "patients" table.
	PatientsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "birth_date", Type: field.TypeTime},
		{Name: "experience", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	// PatientsTable holds the schema information for the "patients" table.
	PatientsTable = &schema.Table{
		Name:       "patients",
		Columns:    PatientsColumns,
		PrimaryKey: []*schema.Column{PatientsColumns[0]},
	}

	// ClinicalRecordsColumns holds the columns for the "clinical_records" table.
	ClinicalRecordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "area", Type: field.TypeString},
		{Name: "active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "patient_id", Type: field.TypeString},
	}
	// ClinicalRecordsTable holds the schema information for the "clinical_records" table.
	ClinicalRecordsTable = &schema.Table{
		Name:       "clinical_records",
		Columns:    ClinicalRecordsColumns,
		PrimaryKey: []*schema.Column{ClinicalRecordsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "clinical_records_patients_records",
				Columns:    []*schema.Column{ClinicalRecordsColumns[4]},
				RefColumns: []*schema.Column{PatientsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "clinicalrecord_patient_id_active",
				Unique:  false,
				Columns: []*schema.Column{ClinicalRecordsColumns[4], ClinicalRecordsColumns[2]},
			},
		},
	}

	// ExercisesColumns holds the columns for the "exercises" table.
	ExercisesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "area", Type: field.TypeString, Default: ""},
		{Name: "age_band", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt, Default: 1},
		{Name: "reward", Type: field.TypeInt},
		{Name: "active", Type: field.TypeBool, Default: true},
		{Name: "variant", Type: field.TypeString},
		{Name: "prompt", Type: field.TypeString, Default: ""},
		{Name: "prompt_image", Type: field.TypeString, Default: ""},
		{Name: "payload", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ExercisesTable holds the schema information for the "exercises" table.
	ExercisesTable = &schema.Table{
		Name:       "exercises",
		Columns:    ExercisesColumns,
		PrimaryKey: []*schema.Column{ExercisesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "exercise_active_age_band",
				Unique:  false,
				Columns: []*schema.Column{ExercisesColumns[6], ExercisesColumns[3]},
			},
		},
	}

	// PlayInstancesColumns holds the columns for the "play_instances" table.
	PlayInstancesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "outcome", Type: field.TypeString},
		{Name: "experience_awarded", Type: field.TypeInt, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "patient_id", Type: field.TypeString},
		{Name: "exercise_id", Type: field.TypeString},
	}
	// PlayInstancesTable holds the schema information for the "play_instances" table.
	PlayInstancesTable = &schema.Table{
		Name:       "play_instances",
		Columns:    PlayInstancesColumns,
		PrimaryKey: []*schema.Column{PlayInstancesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "play_instances_patients_plays",
				Columns:    []*schema.Column{PlayInstancesColumns[6]},
				RefColumns: []*schema.Column{PatientsColumns[0]},
				OnDelete:   schema.NoAction,
			},
			{
				Symbol:     "play_instances_exercises_plays",
				Columns:    []*schema.Column{PlayInstancesColumns[7]},
				RefColumns: []*schema.Column{ExercisesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "playinstance_patient_id_outcome",
				Unique:  false,
				Columns: []*schema.Column{PlayInstancesColumns[6], PlayInstancesColumns[3]},
			},
		},
	}

	// LevelThresholdsColumns holds the columns for the "level_thresholds" table.
	LevelThresholdsColumns = []*schema.Column{
		{Name: "level", Type: field.TypeInt},
		{Name: "min_experience", Type: field.TypeInt},
		{Name: "max_experience", Type: field.TypeInt},
	}
	// LevelThresholdsTable holds the schema information for the "level_thresholds" table.
	LevelThresholdsTable = &schema.Table{
		Name:       "level_thresholds",
		Columns:    LevelThresholdsColumns,
		PrimaryKey: []*schema.Column{LevelThresholdsColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		PatientsTable,
		ClinicalRecordsTable,
		ExercisesTable,
		PlayInstancesTable,
		LevelThresholdsTable,
	}
)

func init() {
	ClinicalRecordsTable.ForeignKeys[0].RefTable = PatientsTable
	PlayInstancesTable.ForeignKeys[0].RefTable = PatientsTable
	PlayInstancesTable.ForeignKeys[1].RefTable = ExercisesTable
}
