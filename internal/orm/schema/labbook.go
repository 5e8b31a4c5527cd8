package schema

import "sync"

var (
	labbookOnce     sync.Once
	labbookRegistry *Registry
)

// Labbook returns the process-wide registry of the lab record categories
func Labbook() *Registry {
	labbookOnce.Do(func() {
		labbookRegistry = NewLabbookRegistry()
	})
	return labbookRegistry
}

// NewLabbookRegistry builds a fresh registry of the lab record categories
func NewLabbookRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(
		Define("Operator").
			Text("code", Unique).
			Text("full_name").
			Text("affiliation").
			Text("email"),

		Define("MeasurementUnit").
			Text("code", Unique).
			Text("long_name").
			Text("siunitx"),

		Define("Irregularity").
			Table("irregularities").
			Text("description", Unique),

		Define("Genotype").
			Text("code", Unique).
			Text("construct").
			Text("zygosity").
			ManyToMany("animals", "Animal", "genotype_associations", "genotypes_id", "animals_id"),

		Define("Substance").
			Text("code", Unique).
			Text("name", Unique).
			Text("long_name", Unique).
			Float("concentration").
			BelongsTo("concentration_unit", "MeasurementUnit", "concentration_unit_id").
			Text("supplier").
			Text("supplier_product_code").
			Text("pubchem_sid"),

		Define("Ingredient").
			Float("concentration").
			BelongsTo("concentration_unit", "MeasurementUnit", "concentration_unit_id").
			BelongsTo("substance", "Substance", "substance_id"),

		Define("Solution").
			Text("code", Unique).
			Text("name", Unique).
			Text("supplier").
			Text("supplier_product_code").
			ManyToMany("contains", "Ingredient", "ingredients_associations", "solutions_id", "ingredients_id"),

		Define("FMRIScannerSetup").
			Table("fmri_scanner_setups").
			Text("code", Unique).
			Text("coil").
			Text("scanner").
			Text("support"),

		Define("LaserStimulationProtocol").
			Text("code", Unique).
			Int("stimulus_repetitions").
			Float("stimulus_duration").
			Float("inter_stimulus_duration").
			Float("stimulation_onset").
			Float("stimulus_frequency").
			Float("pulse_width"),
	)

	protocol := mustBuild(Define("Protocol").
		Text("code", Unique).
		Text("name", Unique).
		Discriminator("type", "protocol").
		ManyToMany("authors", "Operator", "authors_associations", "protocols_id", "operators_id"))
	mustRegister(r, protocol)

	r.MustRegister(
		Define("TreatmentProtocol").
			Extends(protocol, "treatment").
			Text("frequency").
			Text("route").
			Float("rate").
			BelongsTo("rate_unit", "MeasurementUnit", "rate_unit_id").
			Float("dose").
			BelongsTo("dose_unit", "MeasurementUnit", "dose_unit_id").
			BelongsTo("solution", "Solution", "solution_id"),

		Define("HandlingHabituationProtocol").
			Extends(protocol, "handling_habituation").
			Int("session_duration").
			Bool("individual_picking_up").
			Bool("group_picking_up").
			Bool("transparent_tube"),

		Define("DNAExtractionProtocol").
			Table("dna_extraction_protocols").
			Extends(protocol, "dna_extraction").
			Float("sample_mass").
			BelongsTo("mass_unit", "MeasurementUnit", "mass_unit_id").
			BelongsTo("digestion_buffer", "Solution", "digestion_buffer_id").
			Float("digestion_buffer_volume"),

		Define("Treatment").
			DateTime("start_date").
			DateTime("end_date").
			BelongsTo("protocol", "Protocol", "protocol_id").
			ManyToMany("animals", "Animal", "treatment_animal_associations", "treatments_id", "animals_id").
			ManyToMany("cages", "Cage", "treatment_cage_associations", "treatments_id", "cages_id"),

		Define("Cage").
			Text("id_local", Unique).
			Text("location").
			Text("environmental_enrichment").
			HasMany("handling_habituations", "HandlingHabituation", "cage_id").
			ManyToMany("treatments", "Treatment", "treatment_cage_associations", "cages_id", "treatments_id").
			HasMany("measurements", "Measurement", "cage_id").
			HasMany("stays", "CageStay", "cage_id"),

		Define("CageStay").
			DateTime("start_date").
			BelongsTo("cage", "Cage", "cage_id").
			Text("single_caged").
			ManyToMany("animals", "Animal", "cage_stay_associations", "cage_stays_id", "animals_id"),

		Define("Animal").
			DateTime("birth_date").
			DateTime("death_date").
			Text("death_reason").
			Text("ear_punches").
			Text("license").
			Int("maximal_severtity").
			Text("sex").
			ManyToMany("cage_stays", "CageStay", "cage_stay_associations", "animals_id", "cage_stays_id").
			HasMany("external_ids", "AnimalExternalIdentifier", "animal_id").
			HasMany("measurements", "Measurement", "animal_id").
			ManyToMany("genotypes", "Genotype", "genotype_associations", "animals_id", "genotypes_id").
			ManyToMany("treatments", "Treatment", "treatment_animal_associations", "animals_id", "treatments_id").
			HasMany("observations", "Observation", "animal_id").
			HasMany("operations", "Operation", "animal_id"),

		Define("AnimalExternalIdentifier").
			Text("database").
			Text("identifier").
			BelongsTo("animal", "Animal", "animal_id"),

		Define("Observation").
			DateTime("date").
			Text("behaviour").
			Text("physiology").
			Int("severtity").
			Float("value").
			Int("animal_id").
			BelongsTo("unit", "MeasurementUnit", "unit_id").
			BelongsTo("operator", "Operator", "operator_id"),

		Define("Operation").
			DateTime("date").
			Int("animal_id").
			BelongsTo("operator", "Operator", "operator_id").
			ManyToMany("protocols", "Protocol", "operation_associations", "operations_id", "protocols_id").
			ManyToMany("irregularities", "Irregularity", "operations_irregularities_associations", "operations_id", "irregularities_id"),

		Define("HandlingHabituation").
			DateTime("date").
			BelongsTo("cage", "Cage", "cage_id").
			BelongsTo("protocol", "HandlingHabituationProtocol", "protocol_id"),

		Define("Evaluation").
			Text("path").
			BelongsTo("author", "Operator", "author_id").
			Int("measurement_id"),
	)

	measurement := mustBuild(Define("Measurement").
		DateTime("date").
		Int("animal_id").
		Int("cage_id").
		BelongsTo("operator", "Operator", "operator_id").
		Discriminator("type", "measurement").
		ManyToMany("irregularities", "Irregularity", "measurements_irregularities_associations", "measurements_id", "irregularities_id"))
	mustRegister(r, measurement)

	r.MustRegister(
		Define("WeightMeasurement").
			Extends(measurement, "weight").
			Float("weight").
			BelongsTo("weight_unit", "MeasurementUnit", "weight_unit_id"),

		Define("DrinkingMeasurement").
			Extends(measurement, "drinking").
			DateTime("reference_date").
			Float("consumption").
			Float("start_amount").
			Float("end_amount"),

		Define("SucrosePreferenceMeasurement").
			Table("sucrosepreference_measurements").
			Extends(measurement, "sucrosepreference").
			DateTime("reference_date").
			Float("water_start_amount").
			Float("water_end_amount").
			Float("sucrose_start_amount").
			Float("sucrose_end_amount").
			Text("sucrose_bottle_position").
			Float("sucrose_concentration").
			BelongsTo("concentration_unit", "MeasurementUnit", "concentration_unit_id"),

		Define("FMRIMeasurement").
			Extends(measurement, "fmri").
			Float("temperature").
			BelongsTo("scanner_setup", "FMRIScannerSetup", "scanner_setup_id").
			Text("data_path").
			ManyToMany("stimulations", "LaserStimulationProtocol", "stimulations_associations", "fmri_measurements_id", "stimulation_protocols_id"),

		Define("ForcedSwimTestMeasurement").
			Table("forcedswimtest_measurements").
			Extends(measurement, "forcedswimtest").
			Float("temperature").
			Text("data_path").
			Text("recording_bracket").
			HasMany("evaluations", "Evaluation", "measurement_id"),
	)

	if err := r.Validate(); err != nil {
		panic(err)
	}
	return r
}

func mustBuild(b *Builder) *EntityType {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func mustRegister(r *Registry, t *EntityType) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}
