package protocol

// Object descriptors below are grounded on the literal oid comparisons found
// in original_source/src/rctmon/device_manager.py and
// original_source/src/rctmon/battery_manager.py (the _cb_* handlers compare
// frame.id against these exact values). Names follow the upstream dotted
// symbolic names so DESIGN.md's grounding and the python source can be
// cross-referenced field by field.
//
// A handful of names the upstream device manager requests but never decodes
// in its own callbacks (e.g. energy.e_ac_day, grid_pll[0].f,
// power_mng.soc_max) have no literal oid anywhere in the retrieval pack —
// they are omitted here rather than invented; see DESIGN.md.
var objectDescriptors = []ObjectDescriptor{
	// identity / inventory
	{ID: 0x95B08889, Name: "android_description", DataType: DataTypeString},
	{ID: 0x7924ABD9, Name: "inverter_sn", DataType: DataTypeString},
	{ID: 0xDDD1C2D0, Name: "svnversion", DataType: DataTypeString},
	{ID: 0x68BC034D, Name: "parameter_file", DataType: DataTypeString},
	{ID: 0x701A0482, Name: "dc_conv.dc_conv_struct[0].enabled", DataType: DataTypeBool},
	{ID: 0xFED51BD2, Name: "dc_conv.dc_conv_struct[1].enabled", DataType: DataTypeBool},
	{ID: 0x437B8122, Name: "rb485.available", DataType: DataTypeBool},
	{ID: 0x682CDDA1, Name: "power_mng.battery_type", DataType: DataTypeUInt32},

	// power switch (rb485)
	{ID: 0x27650FE2, Name: "rb485.version_main", DataType: DataTypeUInt32},
	{ID: 0x173D81E4, Name: "rb485.version_boot", DataType: DataTypeUInt32},
	{ID: 0x93F976AB, Name: "rb485.u_l_grid[0]", DataType: DataTypeFloat32},
	{ID: 0x7A9091EA, Name: "rb485.u_l_grid[1]", DataType: DataTypeFloat32},
	{ID: 0x21EE7CBB, Name: "rb485.u_l_grid[2]", DataType: DataTypeFloat32},
	{ID: 0x9558AD8A, Name: "rb485.f_grid[0]", DataType: DataTypeFloat32},
	{ID: 0xFAE429C5, Name: "rb485.f_grid[1]", DataType: DataTypeFloat32},
	{ID: 0x0104EB6A, Name: "rb485.f_grid[2]", DataType: DataTypeFloat32},
	{ID: 0x3B5F6B9D, Name: "rb485.f_wr[0]", DataType: DataTypeFloat32},
	{ID: 0x6FD36B32, Name: "rb485.f_wr[1]", DataType: DataTypeFloat32},
	{ID: 0x905F707B, Name: "rb485.f_wr[2]", DataType: DataTypeFloat32},

	// solar generators A/B
	{ID: 0xB55BA2CE, Name: "g_sync.u_sg_avg[0]", DataType: DataTypeFloat32},
	{ID: 0xDB11855B, Name: "dc_conv.dc_conv_struct[0].p_dc_lp", DataType: DataTypeFloat32},
	{ID: 0x226A23A4, Name: "dc_conv.dc_conv_struct[0].u_target", DataType: DataTypeFloat32},
	{ID: 0xBA8B8515, Name: "dc_conv.dc_conv_struct[0].mpp.mpp_step", DataType: DataTypeFloat32},
	{ID: 0xB0041187, Name: "g_sync.u_sg_avg[1]", DataType: DataTypeFloat32},
	{ID: 0x0CB5D21B, Name: "dc_conv.dc_conv_struct[1].p_dc_lp", DataType: DataTypeFloat32},
	{ID: 0x675776B1, Name: "dc_conv.dc_conv_struct[1].u_target", DataType: DataTypeFloat32},
	{ID: 0x4AE96C12, Name: "dc_conv.dc_conv_struct[1].mpp.mpp_step", DataType: DataTypeFloat32},

	// energy counters
	{ID: 0xFC724A9E, Name: "energy.e_dc_total[0]", DataType: DataTypeFloat32},
	{ID: 0x68EEFD3D, Name: "energy.e_dc_total[1]", DataType: DataTypeFloat32},
	{ID: 0xB1EF67CE, Name: "energy.e_ac_total", DataType: DataTypeFloat32},
	{ID: 0xEFF4B537, Name: "energy.e_load_total", DataType: DataTypeFloat32},
	{ID: 0x44D4C533, Name: "energy.e_grid_feed_total", DataType: DataTypeFloat32},
	{ID: 0x62FBE7DC, Name: "energy.e_grid_load_total", DataType: DataTypeFloat32},

	// household
	{ID: 0x1AC87AA0, Name: "g_sync.p_ac_load_sum_lp", DataType: DataTypeFloat32},
	{ID: 0x03A39CA2, Name: "g_sync.p_ac_load[0]", DataType: DataTypeFloat32},
	{ID: 0x2788928C, Name: "g_sync.p_ac_load[1]", DataType: DataTypeFloat32},
	{ID: 0xF0B436DD, Name: "g_sync.p_ac_load[2]", DataType: DataTypeFloat32},

	// grid
	{ID: 0x91617C58, Name: "g_sync.p_ac_grid_sum_lp", DataType: DataTypeFloat32},
	{ID: 0x27BE51D9, Name: "g_sync.p_ac_sc[0]", DataType: DataTypeFloat32},
	{ID: 0xF5584F90, Name: "g_sync.p_ac_sc[1]", DataType: DataTypeFloat32},
	{ID: 0xB221BCFA, Name: "g_sync.p_ac_sc[2]", DataType: DataTypeFloat32},
	{ID: 0xCF053085, Name: "g_sync.u_l_rms[0]", DataType: DataTypeFloat32},
	{ID: 0x54B4684E, Name: "g_sync.u_l_rms[1]", DataType: DataTypeFloat32},
	{ID: 0x2545E22D, Name: "g_sync.u_l_rms[2]", DataType: DataTypeFloat32},

	// sensors
	{ID: 0xF79D41D9, Name: "db.temp1", DataType: DataTypeFloat32},
	{ID: 0x4F735D10, Name: "db.temp2", DataType: DataTypeFloat32},
	{ID: 0xC24E85D0, Name: "db.core_temp", DataType: DataTypeFloat32},

	// inverter status / faults / insulation
	{ID: 0x5F33284E, Name: "prim_sm.state", DataType: DataTypeUInt8},
	{ID: 0x3623D82A, Name: "prim_sm.island_flag", DataType: DataTypeUInt8},
	{ID: 0x37F9D5CA, Name: "fault[0].flt", DataType: DataTypeUInt32},
	{ID: 0x234B4736, Name: "fault[1].flt", DataType: DataTypeUInt32},
	{ID: 0x3B7FCD47, Name: "fault[2].flt", DataType: DataTypeUInt32},
	{ID: 0x7F813D73, Name: "fault[3].flt", DataType: DataTypeUInt32},
	{ID: 0xC717D1FB, Name: "iso_struct.Riso", DataType: DataTypeFloat32},
	{ID: 0x8E41FC47, Name: "iso_struct.Rp", DataType: DataTypeFloat32},
	{ID: 0x474F80D5, Name: "iso_struct.Rn", DataType: DataTypeFloat32},

	// battery inventory
	{ID: 0x16A1F844, Name: "battery.bms_sn", DataType: DataTypeString},
	{ID: 0xFBF6D834, Name: "battery.module_sn[0]", DataType: DataTypeString},
	{ID: 0x99396810, Name: "battery.module_sn[1]", DataType: DataTypeString},
	{ID: 0x73489528, Name: "battery.module_sn[2]", DataType: DataTypeString},
	{ID: 0x257B7612, Name: "battery.module_sn[3]", DataType: DataTypeString},
	{ID: 0x4E699086, Name: "battery.module_sn[4]", DataType: DataTypeString},
	{ID: 0x162491E8, Name: "battery.module_sn[5]", DataType: DataTypeString},
	{ID: 0x5939EC5D, Name: "battery.module_sn[6]", DataType: DataTypeString},
	{ID: 0xA6C4FD4A, Name: "battery.stack_cycles[0]", DataType: DataTypeUInt32},
	{ID: 0x0CFA8BC4, Name: "battery.stack_cycles[1]", DataType: DataTypeUInt32},
	{ID: 0x5BA122A5, Name: "battery.stack_cycles[2]", DataType: DataTypeUInt32},
	{ID: 0x89B25F4B, Name: "battery.stack_cycles[3]", DataType: DataTypeUInt32},
	{ID: 0x5A9EEFF0, Name: "battery.stack_cycles[4]", DataType: DataTypeUInt32},
	{ID: 0x2A30A97E, Name: "battery.stack_cycles[5]", DataType: DataTypeUInt32},
	{ID: 0x27C39CEA, Name: "battery.stack_cycles[6]", DataType: DataTypeUInt32},

	// battery readings
	{ID: 0x381B8BF9, Name: "battery.soh", DataType: DataTypeFloat32},
	{ID: 0x959930BF, Name: "battery.soc", DataType: DataTypeFloat32},
	{ID: 0x8B9FF008, Name: "battery.soc_target", DataType: DataTypeFloat32},
	{ID: 0x902AFAFB, Name: "battery.temperature", DataType: DataTypeFloat32},
	{ID: 0x70A2AF4F, Name: "battery.bat_status", DataType: DataTypeUInt32},
	{ID: 0x71765BD8, Name: "battery.status", DataType: DataTypeUInt32},
	{ID: 0x0DE3D20D, Name: "battery.status2", DataType: DataTypeUInt32},
	{ID: 0xE7B0E692, Name: "battery.bat_impedance.impedance_fine", DataType: DataTypeFloat32},
	{ID: 0x2BC1E72B, Name: "battery.discharged_amp_hours", DataType: DataTypeFloat32},
	{ID: 0x5570401B, Name: "battery.stored_energy", DataType: DataTypeFloat32},
	{ID: 0xA9033880, Name: "battery.used_energy", DataType: DataTypeFloat32},
	{ID: 0xACF7666B, Name: "battery.efficiency", DataType: DataTypeFloat32},
	{ID: 0x65EED11B, Name: "battery.voltage", DataType: DataTypeFloat32},
	{ID: 0x21961B58, Name: "battery.current", DataType: DataTypeFloat32},
	{ID: 0xC0DF2978, Name: "battery.cycles", DataType: DataTypeUInt32},
	{ID: 0xCE266F0F, Name: "power_mng.soc_min", DataType: DataTypeFloat32},
	{ID: 0xA7FA5C5D, Name: "power_mng.u_acc_mix_lp", DataType: DataTypeFloat32},
	{ID: 0x400F015B, Name: "power_mng.battery_power", DataType: DataTypeFloat32},
	{ID: 0xDC667958, Name: "power_mng.state", DataType: DataTypeUInt32},
}

// DefaultRegistry is the object registry built from the full descriptor
// table, used by package device to enroll managed frames and by the
// dispatcher to decode arriving payloads.
var DefaultRegistry = NewRegistry(objectDescriptors)
